package daemon

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/engram/internal/paths"
	"github.com/mesh-intelligence/engram/pkg/types"
)

// readTimeout bounds how long a client waits for a response line. The
// daemon queue is serial, so a stuck daemon would otherwise hang every
// client forever.
const readTimeout = 30 * time.Second

// Client speaks the daemon protocol over one connection. It exposes the
// same operation surface as a direct session, so callers cannot tell the
// difference.
type Client struct {
	mu      sync.Mutex
	conn    net.Conn
	reader  *bufio.Reader
	timeout time.Duration
}

// Dial connects to the daemon socket of the given store directory.
// Returns types.ErrDaemonUnreachable when nothing answers.
func Dial(dir string) (*Client, error) {
	conn, err := net.Dial("unix", filepath.Join(dir, paths.SocketFile))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrDaemonUnreachable, err)
	}
	return &Client{
		conn:    conn,
		reader:  bufio.NewReader(conn),
		timeout: readTimeout,
	}, nil
}

// Close drops the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// Ping round-trips a no-op request.
func (c *Client) Ping() error {
	_, err := c.roundTrip(Request{Op: OpPing})
	return err
}

// Shutdown asks the daemon to stop.
func (c *Client) Shutdown() error {
	_, err := c.roundTrip(Request{Op: OpShutdown})
	return err
}

// roundTrip sends one request and reads its response. Requests are
// serialized per client; responses are matched by id.
func (c *Client) roundTrip(req Request) (*Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil, types.ErrDaemonUnreachable
	}

	req.ID = newRequestID()
	if req.DeadlineMillis == 0 {
		req.DeadlineMillis = time.Now().Add(c.timeout).UnixMilli()
	}

	raw, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}
	raw = append(raw, '\n')
	if _, err := c.conn.Write(raw); err != nil {
		c.fail()
		return nil, fmt.Errorf("%w: %v", types.ErrDaemonUnreachable, err)
	}

	if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		c.fail()
		return nil, fmt.Errorf("%w: %v", types.ErrDaemonUnreachable, err)
	}
	line, err := c.reader.ReadString('\n')
	if err != nil {
		c.fail()
		return nil, fmt.Errorf("%w: %v", types.ErrDaemonUnreachable, err)
	}

	var resp Response
	if err := json.Unmarshal([]byte(strings.TrimSpace(line)), &resp); err != nil {
		c.fail()
		return nil, fmt.Errorf("%w: malformed response: %v", types.ErrDaemonUnreachable, err)
	}
	if resp.ID != req.ID {
		c.fail()
		return nil, fmt.Errorf("%w: response id mismatch", types.ErrDaemonUnreachable)
	}
	if err := errorForCode(resp.Code, resp.Error); err != nil {
		return nil, err
	}
	return &resp, nil
}

// fail drops a connection that can no longer be trusted to stay in
// request/response lockstep.
func (c *Client) fail() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

// newRequestID returns a time-ordered correlation id.
func newRequestID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// Create creates an item through the daemon.
func (c *Client) Create(title string, description *string, priority int, labels []string) (*types.Item, error) {
	resp, err := c.roundTrip(Request{
		Op:          OpCreate,
		Title:       title,
		Description: description,
		Priority:    priority,
		Labels:      labels,
	})
	if err != nil {
		return nil, err
	}
	return resp.Item, nil
}

// Get fetches one item.
func (c *Client) Get(id string) (*types.Item, error) {
	resp, err := c.roundTrip(Request{Op: OpGet, ItemID: id})
	if err != nil {
		return nil, err
	}
	return resp.Item, nil
}

// Update applies a partial update.
func (c *Client) Update(id string, fields types.UpdateFields) (*types.Item, error) {
	resp, err := c.roundTrip(Request{Op: OpUpdate, ItemID: id, Fields: &fields})
	if err != nil {
		return nil, err
	}
	return resp.Item, nil
}

// SetStatus moves an item through the status machine.
func (c *Client) SetStatus(id string, status types.Status) (*types.Item, error) {
	resp, err := c.roundTrip(Request{Op: OpSetStatus, ItemID: id, Status: string(status)})
	if err != nil {
		return nil, err
	}
	return resp.Item, nil
}

// CloseItem closes an item with an optional reason.
func (c *Client) CloseItem(id string, reason *string) (*types.Item, error) {
	resp, err := c.roundTrip(Request{Op: OpClose, ItemID: id, Reason: reason})
	if err != nil {
		return nil, err
	}
	return resp.Item, nil
}

// Reopen returns a closed item to open.
func (c *Client) Reopen(id string) (*types.Item, error) {
	resp, err := c.roundTrip(Request{Op: OpReopen, ItemID: id})
	if err != nil {
		return nil, err
	}
	return resp.Item, nil
}

// AddEdge links two items.
func (c *Client) AddEdge(fromID, toID string, kind types.EdgeKind) (*types.Edge, error) {
	resp, err := c.roundTrip(Request{Op: OpAddEdge, FromID: fromID, ToID: toID, Kind: string(kind)})
	if err != nil {
		return nil, err
	}
	return resp.Edge, nil
}

// RemoveEdge tombstones an edge.
func (c *Client) RemoveEdge(fromID, toID string, kind types.EdgeKind) error {
	_, err := c.roundTrip(Request{Op: OpRemoveEdge, FromID: fromID, ToID: toID, Kind: string(kind)})
	return err
}

// List returns items matching the filter.
func (c *Client) List(filter types.Filter) ([]types.Item, error) {
	resp, err := c.roundTrip(Request{Op: OpList, Filter: &filter})
	if err != nil {
		return nil, err
	}
	return itemsOrEmpty(resp), nil
}

// Ready returns the ready set.
func (c *Client) Ready() ([]types.Item, error) {
	resp, err := c.roundTrip(Request{Op: OpReady})
	if err != nil {
		return nil, err
	}
	return itemsOrEmpty(resp), nil
}

// Blocked returns the blocked set.
func (c *Client) Blocked() ([]types.Item, error) {
	resp, err := c.roundTrip(Request{Op: OpBlocked})
	if err != nil {
		return nil, err
	}
	return itemsOrEmpty(resp), nil
}

// Children returns the items declaring id as their parent.
func (c *Client) Children(id string) ([]types.Item, error) {
	return c.neighbourOp(OpChildren, id)
}

// Parents returns the items id declares as parents.
func (c *Client) Parents(id string) ([]types.Item, error) {
	return c.neighbourOp(OpParents, id)
}

// Blockers returns the items blocking id.
func (c *Client) Blockers(id string) ([]types.Item, error) {
	return c.neighbourOp(OpBlockers, id)
}

// BlockedBy returns the items id blocks.
func (c *Client) BlockedBy(id string) ([]types.Item, error) {
	return c.neighbourOp(OpBlockedBy, id)
}

// Related returns the items related to id.
func (c *Client) Related(id string) ([]types.Item, error) {
	return c.neighbourOp(OpRelated, id)
}

func (c *Client) neighbourOp(op, id string) ([]types.Item, error) {
	resp, err := c.roundTrip(Request{Op: op, ItemID: id})
	if err != nil {
		return nil, err
	}
	return itemsOrEmpty(resp), nil
}

// itemsOrEmpty keeps list results non-nil, like the direct session.
func itemsOrEmpty(resp *Response) []types.Item {
	if resp.Items == nil {
		return []types.Item{}
	}
	return resp.Items
}
