package tracking

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/Khangurai/zap-admin/internal/store"
)

const (
	dialRetry      = 5 * time.Second
	reconnectDelay = 2 * time.Second
	maxLineBytes   = 64 * 1024
)

// linkLine is any NDJSON message from the socket proxy. Device events
// carry device_connect or device_update; everything else is tracking.
type linkLine struct {
	DeviceConnect bool   `json:"device_connect"`
	DeviceUpdate  bool   `json:"device_update"`
	ICCID         string `json:"iccid,omitempty"`
	RemoteIP      string `json:"remote_ip,omitempty"`
	Report
}

// LinkClient keeps a TCP connection to the socket proxy open and feeds
// every tracking line to the tracker.
type LinkClient struct {
	log     *zap.SugaredLogger
	addr    string
	tracker *Tracker
	dialer  net.Dialer
	now     func() time.Time
}

func NewLinkClient(log *zap.SugaredLogger, addr string, tracker *Tracker) *LinkClient {
	return &LinkClient{
		log:     log.Named("link").With("addr", addr),
		addr:    addr,
		tracker: tracker,
		dialer:  net.Dialer{Timeout: 5 * time.Second},
		now:     time.Now,
	}
}

// Run dials, reads until the connection drops, then reconnects. It
// returns when ctx is done.
func (l *LinkClient) Run(ctx context.Context) {
	for {
		c, err := l.dialer.DialContext(ctx, "tcp", l.addr)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			l.log.Errorw("dial failed", "error", err)
			if !sleepCtx(ctx, dialRetry) {
				return
			}
			continue
		}
		l.log.Infow("connected", "remote", c.RemoteAddr().String())

		stop := context.AfterFunc(ctx, func() { _ = c.Close() })
		l.readLoop(ctx, c)
		stop()
		_ = c.Close()

		if ctx.Err() != nil {
			return
		}
		l.log.Warnw("connection closed, reconnecting")
		if !sleepCtx(ctx, reconnectDelay) {
			return
		}
	}
}

func (l *LinkClient) readLoop(ctx context.Context, c net.Conn) {
	sc := bufio.NewScanner(c)
	sc.Buffer(make([]byte, 0, 4096), maxLineBytes)
	for sc.Scan() {
		l.handleLine(ctx, sc.Bytes())
	}
	if err := sc.Err(); err != nil && ctx.Err() == nil {
		l.log.Warnw("read error", "error", err)
	}
}

func (l *LinkClient) handleLine(ctx context.Context, line []byte) {
	if len(line) == 0 {
		return
	}
	var msg linkLine
	if err := json.Unmarshal(line, &msg); err != nil {
		l.log.Warnw("bad line", "error", err, "line", string(line))
		return
	}
	switch {
	case msg.DeviceConnect:
		l.log.Infow("device connected", "imei", msg.IMEI, "model", msg.Model, "fw_ver", msg.FWVer, "remote_ip", msg.RemoteIP)
		return
	case msg.DeviceUpdate:
		l.log.Infow("device updated", "imei", msg.IMEI, "model", msg.Model, "fw_ver", msg.FWVer, "iccid", msg.ICCID)
		return
	}

	st, err := msg.Report.State(l.now())
	if err != nil {
		l.log.Warnw("bad tracking line", "error", err)
		return
	}
	l.tracker.Ingest(ctx, SourceLink, []store.VehicleState{st})
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
