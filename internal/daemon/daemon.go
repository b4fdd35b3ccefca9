package daemon

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/golang/glog"

	"github.com/mesh-intelligence/engram/internal/paths"
	"github.com/mesh-intelligence/engram/pkg/types"
)

// Handler is the operation surface the daemon executes requests against.
// The session facade satisfies it.
type Handler interface {
	Create(title string, description *string, priority int, labels []string) (*types.Item, error)
	Get(id string) (*types.Item, error)
	Update(id string, fields types.UpdateFields) (*types.Item, error)
	SetStatus(id string, status types.Status) (*types.Item, error)
	CloseItem(id string, reason *string) (*types.Item, error)
	Reopen(id string) (*types.Item, error)
	AddEdge(fromID, toID string, kind types.EdgeKind) (*types.Edge, error)
	RemoveEdge(fromID, toID string, kind types.EdgeKind) error
	List(filter types.Filter) ([]types.Item, error)
	Ready() ([]types.Item, error)
	Blocked() ([]types.Item, error)
	Children(id string) ([]types.Item, error)
	Parents(id string) ([]types.Item, error)
	Blockers(id string) ([]types.Item, error)
	BlockedBy(id string) ([]types.Item, error)
	Related(id string) ([]types.Item, error)
}

// task is one request waiting in the serial queue with the channel its
// connection reads the answer from.
type task struct {
	req   Request
	reply chan Response
}

// Daemon serves one store over its unix socket.
type Daemon struct {
	handler  Handler
	dir      string
	listener net.Listener
	queue    chan task
	shutdown chan struct{}
}

// New wraps a handler for serving. dir is the store directory holding the
// socket and pid files.
func New(handler Handler, dir string) *Daemon {
	return &Daemon{
		handler:  handler,
		dir:      dir,
		queue:    make(chan task, 64),
		shutdown: make(chan struct{}),
	}
}

// Run writes the pid file, listens on the socket, and serves until a
// shutdown request or SIGINT/SIGTERM arrives. Socket and pid files are
// removed on the way out.
func (d *Daemon) Run() error {
	socketPath := filepath.Join(d.dir, paths.SocketFile)
	pidPath := filepath.Join(d.dir, paths.PidFile)

	// A leftover socket from a dead daemon would make Listen fail.
	if !IsRunning(d.dir) {
		os.Remove(socketPath)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", socketPath, err)
	}
	d.listener = listener

	pid := strconv.Itoa(os.Getpid())
	if err := os.WriteFile(pidPath, []byte(pid+"\n"), 0o644); err != nil {
		listener.Close()
		os.Remove(socketPath)
		return fmt.Errorf("writing pid file: %w", err)
	}
	glog.Infof("daemon listening on %s (pid %s)", socketPath, pid)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-signals:
			glog.Infof("daemon stopping on signal %v", sig)
			d.Stop()
		case <-d.shutdown:
		}
	}()

	go d.serve()

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-d.shutdown:
				err = nil
			default:
			}
			signal.Stop(signals)
			os.Remove(socketPath)
			os.Remove(pidPath)
			glog.Infof("daemon stopped")
			return err
		}
		go d.handleConn(conn)
	}
}

// Stop closes the listener, which unwinds Run.
func (d *Daemon) Stop() {
	select {
	case <-d.shutdown:
		return
	default:
	}
	close(d.shutdown)
	if d.listener != nil {
		d.listener.Close()
	}
}

// serve drains the queue one request at a time. The single goroutine is
// what serializes all writes behind the daemon.
func (d *Daemon) serve() {
	for {
		select {
		case t := <-d.queue:
			t.reply <- d.execute(t.req)
		case <-d.shutdown:
			return
		}
	}
}

// handleConn reads newline-framed requests and writes each response as
// one line. One connection can pipeline many requests.
func (d *Daemon) handleConn(conn net.Conn) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	writer := bufio.NewWriter(conn)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var req Request
		var resp Response
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			resp = Response{Code: CodeInternal, Error: fmt.Sprintf("malformed request: %v", err)}
		} else if req.Op == OpShutdown {
			resp = Response{ID: req.ID, Code: CodeOK}
			d.writeResponse(writer, resp)
			glog.Infof("daemon stopping on shutdown request %s", req.ID)
			d.Stop()
			return
		} else {
			reply := make(chan Response, 1)
			select {
			case d.queue <- task{req: req, reply: reply}:
				resp = <-reply
			case <-d.shutdown:
				return
			}
		}

		if !d.writeResponse(writer, resp) {
			return
		}
	}
	if err := scanner.Err(); err != nil {
		glog.Warningf("connection read failed: %v", err)
	}
}

func (d *Daemon) writeResponse(w *bufio.Writer, resp Response) bool {
	raw, err := json.Marshal(resp)
	if err != nil {
		glog.Warningf("marshaling response: %v", err)
		return false
	}
	raw = append(raw, '\n')
	if _, err := w.Write(raw); err != nil {
		glog.Warningf("connection write failed: %v", err)
		return false
	}
	if err := w.Flush(); err != nil {
		glog.Warningf("connection flush failed: %v", err)
		return false
	}
	return true
}

// execute runs one request against the handler. An expired deadline is
// rejected here, before any work happens.
func (d *Daemon) execute(req Request) Response {
	if req.DeadlineMillis > 0 && time.Now().UnixMilli() > req.DeadlineMillis {
		glog.Warningf("request %s (%s) expired in queue", req.ID, req.Op)
		return errorResponse(req.ID, types.ErrTimeout)
	}

	resp := Response{ID: req.ID, Code: CodeOK}
	var err error
	switch req.Op {
	case OpPing:
	case OpCreate:
		resp.Item, err = d.handler.Create(req.Title, req.Description, req.Priority, req.Labels)
	case OpGet:
		resp.Item, err = d.handler.Get(req.ItemID)
	case OpUpdate:
		var fields types.UpdateFields
		if req.Fields != nil {
			fields = *req.Fields
		}
		resp.Item, err = d.handler.Update(req.ItemID, fields)
	case OpSetStatus:
		resp.Item, err = d.handler.SetStatus(req.ItemID, types.Status(req.Status))
	case OpClose:
		resp.Item, err = d.handler.CloseItem(req.ItemID, req.Reason)
	case OpReopen:
		resp.Item, err = d.handler.Reopen(req.ItemID)
	case OpAddEdge:
		resp.Edge, err = d.handler.AddEdge(req.FromID, req.ToID, types.EdgeKind(req.Kind))
	case OpRemoveEdge:
		err = d.handler.RemoveEdge(req.FromID, req.ToID, types.EdgeKind(req.Kind))
	case OpList:
		var filter types.Filter
		if req.Filter != nil {
			filter = *req.Filter
		}
		resp.Items, err = d.handler.List(filter)
	case OpReady:
		resp.Items, err = d.handler.Ready()
	case OpBlocked:
		resp.Items, err = d.handler.Blocked()
	case OpChildren:
		resp.Items, err = d.handler.Children(req.ItemID)
	case OpParents:
		resp.Items, err = d.handler.Parents(req.ItemID)
	case OpBlockers:
		resp.Items, err = d.handler.Blockers(req.ItemID)
	case OpBlockedBy:
		resp.Items, err = d.handler.BlockedBy(req.ItemID)
	case OpRelated:
		resp.Items, err = d.handler.Related(req.ItemID)
	default:
		return Response{ID: req.ID, Code: CodeInternal, Error: fmt.Sprintf("unknown op %q", req.Op)}
	}

	if err != nil {
		glog.V(1).Infof("request %s (%s) failed: %v", req.ID, req.Op, err)
		return errorResponse(req.ID, err)
	}
	return resp
}

func errorResponse(id string, err error) Response {
	return Response{ID: id, Code: codeForError(err), Error: err.Error()}
}

// IsRunning reports whether a live daemon owns the store. A pid file left
// by a dead daemon is removed along with its socket.
func IsRunning(dir string) bool {
	pidPath := filepath.Join(dir, paths.PidFile)
	data, err := os.ReadFile(pidPath)
	if err != nil {
		return false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		os.Remove(pidPath)
		return false
	}

	// Signal 0 probes liveness without delivering anything.
	if err := syscall.Kill(pid, 0); err != nil {
		os.Remove(pidPath)
		os.Remove(filepath.Join(dir, paths.SocketFile))
		return false
	}
	return true
}
