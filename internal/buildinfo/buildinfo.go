// Package buildinfo carries version metadata set at link time:
//
//	go build -ldflags "-X github.com/ZanzyTHEbar/mcp-memory-jsonl-go/internal/buildinfo.Version=v1.2.3"
package buildinfo

var (
	Version   = "dev"
	Revision  = "unknown"
	BuildDate = "unknown"
)
