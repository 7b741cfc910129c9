//go:build linux

package sameuser

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/mem-editor/procctl/pkg/logflags"
)

// for testing
var (
	uid      = os.Getuid()
	readFile = os.ReadFile
)

type errConnectionNotFound struct {
	filename string
}

func (e *errConnectionNotFound) Error() string {
	return fmt.Sprintf("connection not found in %s", e.filename)
}

// socketOwner scans a /proc/net/tcp style table for the socket of a client
// connected to the server. The table is keyed from the client's side, so
// the server's remote address is the row's local address.
func socketOwner(filename, serverLocal, serverRemote string) (int, error) {
	b, err := readFile(filename)
	if err != nil {
		return -1, err
	}
	for _, line := range strings.Split(strings.TrimSpace(string(b)), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 8 || !strings.HasSuffix(fields[0], ":") {
			continue
		}
		if fields[1] != serverRemote || fields[2] != serverLocal {
			continue
		}
		owner, err := strconv.Atoi(fields[7])
		if err != nil {
			continue
		}
		return owner, nil
	}
	return -1, &errConnectionNotFound{filename}
}

func addrToHex4(addr *net.TCPAddr) string {
	// Kernel prints the address as a host-endian 32 bit word.
	b := addr.IP.To4()
	return fmt.Sprintf("%02X%02X%02X%02X:%04X", b[3], b[2], b[1], b[0], addr.Port)
}

func addrToHex6(addr *net.TCPAddr) string {
	// Kernel prints the address as four host-endian 32 bit words.
	words := make([]uint32, 4)
	if err := binary.Read(bytes.NewReader(addr.IP.To16()), binary.LittleEndian, words); err != nil {
		panic(err)
	}
	return fmt.Sprintf("%08X%08X%08X%08X:%04X", words[0], words[1], words[2], words[3], addr.Port)
}

func sameUser(local, remote *net.TCPAddr) (bool, error) {
	var (
		owner int
		err   error
	)
	if remote.IP.To4() == nil {
		owner, err = socketOwner("/proc/net/tcp6", addrToHex6(local), addrToHex6(remote))
	} else {
		owner, err = socketOwner("/proc/net/tcp", addrToHex4(local), addrToHex4(remote))
		if _, notFound := err.(*errConnectionNotFound); notFound {
			// IPv4 connection on a dual stack socket.
			const mapped = "0000000000000000FFFF0000"
			if owner2, err2 := socketOwner("/proc/net/tcp6", mapped+addrToHex4(local), mapped+addrToHex4(remote)); err2 == nil {
				owner, err = owner2, nil
			}
		}
	}
	if err != nil {
		return false, err
	}
	if owner != uid {
		logflags.RPCLogger().Debugf("connection from uid %d, server uid %d", owner, uid)
	}
	return owner == uid, nil
}

// CanAccept returns true if a connection from remoteAddr to localAddr, on
// a server listening on listenAddr, may be served. Connections to a
// loopback listener are only accepted from the user running the server.
func CanAccept(listenAddr, localAddr, remoteAddr net.Addr) bool {
	laddr, ok := listenAddr.(*net.TCPAddr)
	if !ok || !laddr.IP.IsLoopback() {
		return true
	}
	remote, ok1 := remoteAddr.(*net.TCPAddr)
	local, ok2 := localAddr.(*net.TCPAddr)
	if !ok1 || !ok2 {
		return true
	}

	same, err := sameUser(local, remote)
	if err != nil {
		logflags.RPCLogger().Errorf("cannot check remote address: %v", err)
	}
	if !same {
		msg := fmt.Sprintf("closing connection from different user (%v): connections to localhost are only accepted from the same UNIX user", remote)
		if logflags.Any() {
			logflags.RPCLogger().Warn(msg)
		} else {
			fmt.Fprintln(os.Stderr, msg)
		}
		return false
	}
	return true
}
