package platform

import (
	"bufio"
	"errors"
	"fmt"
	"hash/fnv"
	"log"
	"net"
	"path/filepath"
	"strings"
	"time"
)

// ErrAlreadyRunning indicates another WorkTrail process owns the data
// directory.
var ErrAlreadyRunning = errors.New("instance already running")

const (
	minInstancePort = 41000
	maxInstancePort = 48999
	instanceProbes  = 8
	activateCommand = "activate"
	handshakeWait   = 500 * time.Millisecond
)

// InstanceGuard owns a data directory for the lifetime of the GUI. It listens
// on localhost so a later launch can find it and ask it to come forward.
type InstanceGuard struct {
	listener   net.Listener
	token      string
	onActivate func()
	done       chan struct{}
}

// AcquireSingleInstance claims dataDir for appName. When another process
// already owns it, that process is asked to activate and the error wraps
// ErrAlreadyRunning. Ports held by unrelated programs are skipped.
func AcquireSingleInstance(appName, dataDir string, onActivate func()) (*InstanceGuard, error) {
	token := instanceToken(appName, dataDir)
	base := instancePort(token)
	for attempt := 0; attempt < instanceProbes; attempt++ {
		address := fmt.Sprintf("127.0.0.1:%d", probePort(base, attempt))
		listener, err := net.Listen("tcp", address)
		if err == nil {
			guard := &InstanceGuard{
				listener:   listener,
				token:      token,
				onActivate: onActivate,
				done:       make(chan struct{}),
			}
			go guard.serve()
			return guard, nil
		}
		if activateRunning(address, token) {
			return nil, fmt.Errorf("%w: %s owns %s", ErrAlreadyRunning, address, dataDir)
		}
	}
	return nil, fmt.Errorf("single instance: no free port from %d", base)
}

// Release stops listening. Safe on a nil guard.
func (guard *InstanceGuard) Release() error {
	if guard == nil || guard.listener == nil {
		return nil
	}
	err := guard.listener.Close()
	<-guard.done
	return err
}

// Address returns the bound address.
func (guard *InstanceGuard) Address() string {
	if guard == nil || guard.listener == nil {
		return ""
	}
	return guard.listener.Addr().String()
}

func (guard *InstanceGuard) serve() {
	defer close(guard.done)
	for {
		conn, err := guard.listener.Accept()
		if err != nil {
			return
		}
		go guard.handle(conn)
	}
}

func (guard *InstanceGuard) handle(conn net.Conn) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(2 * handshakeWait))
	if _, err := fmt.Fprintln(conn, guard.token); err != nil {
		return
	}
	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return
	}
	if strings.TrimSpace(line) == activateCommand && guard.onActivate != nil {
		log.Printf("single instance: activation requested")
		guard.onActivate()
	}
}

// activateRunning reports whether address is served by an instance with the
// same token, asking it to activate if so.
func activateRunning(address, token string) bool {
	conn, err := net.DialTimeout("tcp", address, handshakeWait)
	if err != nil {
		return false
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(handshakeWait))
	greeting, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil || strings.TrimSpace(greeting) != token {
		return false
	}
	_, err = fmt.Fprintln(conn, activateCommand)
	return err == nil
}

func instanceToken(appName, dataDir string) string {
	if dir, err := filepath.Abs(dataDir); err == nil {
		dataDir = dir
	}
	hash := fnv.New64a()
	_, _ = hash.Write([]byte(filepath.Clean(dataDir)))
	return fmt.Sprintf("%s/%x", slug(appName), hash.Sum64())
}

func instancePort(token string) int {
	hash := fnv.New32a()
	_, _ = hash.Write([]byte(token))
	return minInstancePort + int(hash.Sum32()%uint32(maxInstancePort-minInstancePort+1))
}

func probePort(base, attempt int) int {
	size := maxInstancePort - minInstancePort + 1
	return minInstancePort + (base-minInstancePort+attempt)%size
}
