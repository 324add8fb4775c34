/*
Package serverinfo builds the body of the INFO command's reply: a
CRLF-separated key:value report grouped into "# Section" headers, the
same shape the teacher's RedisInfo builds, trimmed to the sections
this server actually has data for and extended with a host-memory
section sourced from gopsutil.
*/
package serverinfo

import (
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v4/mem"

	"github.com/lineframe/respd/internal/store"
)

// ProtocolVersion is the RESP dialect this server speaks, reported
// under redis_version for client compatibility probing.
const ProtocolVersion = "7.0.0"

// ImplVersion identifies this implementation, distinct from the
// protocol version it emulates.
const ImplVersion = "1.0.0"

// Build returns the full INFO report for st.
func Build(st *store.Store) string {
	var b strings.Builder

	b.WriteString("# Server\r\n")
	fmt.Fprintf(&b, "redis_version:%s\r\n", ProtocolVersion)
	fmt.Fprintf(&b, "respd_version:%s\r\n", ImplVersion)
	b.WriteString("\r\n")

	b.WriteString("# Memory\r\n")
	if vm, err := mem.VirtualMemory(); err == nil {
		fmt.Fprintf(&b, "total_system_memory:%d\r\n", vm.Total)
		fmt.Fprintf(&b, "used_system_memory:%d\r\n", vm.Used)
	} else {
		b.WriteString("total_system_memory:0\r\n")
		b.WriteString("used_system_memory:0\r\n")
	}
	b.WriteString("\r\n")

	b.WriteString("# Keyspace\r\n")
	fmt.Fprintf(&b, "db0:keys=%d\r\n", st.DBSize())

	return b.String()
}
