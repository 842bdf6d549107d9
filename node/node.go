// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package node hosts the pool: it owns the only writer of the pool state, advances the block clock
// and carries provider requests through the transport.
package node

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/vechain/lsd/builtin/pool"
	"github.com/vechain/lsd/builtin/pool/operation"
	"github.com/vechain/lsd/builtin/storage"
	"github.com/vechain/lsd/co"
	"github.com/vechain/lsd/log"
	"github.com/vechain/lsd/logdb"
	"github.com/vechain/lsd/lsd"
	"github.com/vechain/lsd/state"
	"github.com/vechain/lsd/transport"
)

var logger = log.WithContext("pkg", "node")

// maxHeight is the last height the event log can address.
const maxHeight = math.MaxUint32

// ErrStopped is returned to commands submitted after the node stopped.
var ErrStopped = errors.New("node stopped")

var (
	nodeAccount = lsd.BytesToAddress([]byte("node"))
	slotHeight  = storage.Slot("height")
)

// Options for Node.
type Options struct {
	Pool           lsd.Address   // account of the pool state
	BlockInterval  time.Duration // wall time of a block
	RequestTimeout time.Duration // zero waits forever
	SkipJobs       bool          // do not run the per-epoch batch jobs
	SkipLogs       bool          // do not index events
}

// Status is a snapshot of the node.
type Status struct {
	Height   uint64 `json:"height"`
	Epoch    uint64 `json:"epoch"`
	Inflight int    `json:"inflight"`
}

// Command runs against the pool on the writer loop.
// Returning an error discards every change it made.
type Command = func(p *pool.Pool) error

type command struct {
	fn   Command
	done chan error
}

type answer struct {
	id  operation.ID
	res *pool.Result
}

// Node drives a pool.
type Node struct {
	opts      Options
	stater    *state.Stater
	logDB     *logdb.LogDB
	transport transport.Transport
	onEpoch   func(epoch uint64)

	goes     co.Goes
	cmdCh    chan *command
	answerCh chan *answer

	mu       sync.RWMutex
	env      pool.Env
	inflight map[operation.ID]struct{}

	logWorker *worker
	logWriter *logdb.Writer
}

// New creates a node. logDB may be nil. onEpoch, when set, is called on the writer loop every time
// the epoch advances, before the scheduled jobs run.
func New(opts Options, stater *state.Stater, logDB *logdb.LogDB, tr transport.Transport, onEpoch func(epoch uint64)) *Node {
	if opts.BlockInterval <= 0 {
		opts.BlockInterval = time.Duration(lsd.BlockInterval()) * time.Second
	}
	n := &Node{
		opts:      opts,
		stater:    stater,
		logDB:     logDB,
		transport: tr,
		onEpoch:   onEpoch,
		cmdCh:     make(chan *command),
		answerCh:  make(chan *answer, 64),
		inflight:  make(map[operation.ID]struct{}),
	}
	if logDB != nil && !opts.SkipLogs {
		n.logWriter = logDB.NewWriter()
	}
	return n
}

// Status returns the current clock and in-flight request count.
func (n *Node) Status() Status {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return Status{Height: n.env.Height, Epoch: n.env.Epoch, Inflight: len(n.inflight)}
}

// View runs fn against the latest committed pool state. Changes made by fn are dropped.
func (n *Node) View(fn func(p *pool.Pool) error) error {
	n.mu.RLock()
	env := n.env
	n.mu.RUnlock()
	return fn(pool.New(n.opts.Pool, n.stater.NewState(), env))
}

// Execute runs fn on the writer loop and waits for it.
func (n *Node) Execute(ctx context.Context, fn Command) error {
	cmd := &command{fn: fn, done: make(chan error, 1)}
	select {
	case n.cmdCh <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-cmd.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run loads the clock, re-sends pending requests and runs the writer loop until ctx is done.
func (n *Node) Run(ctx context.Context) error {
	n.logWorker = newWorker()
	defer func() {
		n.goes.Wait()
		if err := n.logWorker.Sync(); err != nil {
			logger.Warn("failed to write events", "err", err)
		}
		n.logWorker.Close()
	}()

	height, err := n.loadHeight()
	if err != nil {
		return err
	}
	if height >= maxHeight {
		return errors.Errorf("height %d out of range", height)
	}
	if n.logWriter != nil {
		// drop events of steps whose state never got committed
		if err := n.logWriter.Truncate(uint32(height) + 1); err != nil {
			return err
		}
		newest, err := n.logDB.NewestHeight()
		if err != nil {
			return errors.Wrap(err, "read event log")
		}
		logger.Debug("event log opened", "newest", newest, "path", n.logDB.Path())
	}
	n.setEnv(height)
	logger.Info("node started", "height", height, "epoch", lsd.EpochOf(height), "pool", n.opts.Pool)

	if err := n.redispatch(ctx); err != nil {
		return err
	}
	// the first step moves to a fresh height so new events never collide with stored ones
	n.tick(ctx)

	ticker := time.NewTicker(n.opts.BlockInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("node stopped", "height", n.Status().Height)
			n.rejectCommands()
			return nil
		case <-ticker.C:
			n.tick(ctx)
		case cmd := <-n.cmdCh:
			cmd.done <- n.step(ctx, cmd.fn)
		case a := <-n.answerCh:
			n.resolve(ctx, n.drainAnswers(a))
		}
	}
}

func (n *Node) rejectCommands() {
	for {
		select {
		case cmd := <-n.cmdCh:
			cmd.done <- ErrStopped
		default:
			return
		}
	}
}

func (n *Node) loadHeight() (uint64, error) {
	st := n.stater.NewState()
	return storage.NewUint64(storage.NewContext(nodeAccount, st), slotHeight).Get()
}

func (n *Node) setEnv(height uint64) {
	n.mu.Lock()
	n.env = pool.Env{Height: height, Epoch: lsd.EpochOf(height)}
	n.mu.Unlock()
}

// tick advances the clock by one block and, on a new epoch, runs the scheduled jobs.
func (n *Node) tick(ctx context.Context) {
	prev := n.Status()
	if prev.Height >= maxHeight {
		logger.Error("clock stopped, height out of range", "height", prev.Height)
		return
	}
	height := prev.Height + 1
	epoch := lsd.EpochOf(height)
	newEpoch := epoch != prev.Epoch || prev.Height == 0

	if newEpoch && n.onEpoch != nil {
		n.onEpoch(epoch)
	}
	n.setEnv(height)

	start := time.Now()
	err := n.step(ctx, func(p *pool.Pool) error {
		if newEpoch && !n.opts.SkipJobs {
			runJobs(p)
		}
		return nil
	})
	metricStepDuration().Observe(time.Since(start).Milliseconds())
	if err != nil {
		logger.Error("failed to step", "height", height, "err", err)
		return
	}
	if newEpoch {
		logger.Info("new epoch", "epoch", epoch, "height", height)
	}
}

// step runs fn on a fresh state, commits it, indexes the events and sends the issued requests.
func (n *Node) step(ctx context.Context, fn Command) error {
	n.mu.RLock()
	env := n.env
	n.mu.RUnlock()

	st := n.stater.NewState()
	p := pool.New(n.opts.Pool, st, env)
	if err := fn(p); err != nil {
		return err
	}
	if err := storage.NewUint64(storage.NewContext(nodeAccount, st), slotHeight).Set(env.Height); err != nil {
		return err
	}
	if err := st.Stage().Commit(); err != nil {
		return errors.Wrap(err, "commit state")
	}

	n.writeEvents(env, p.TakeEvents())
	n.dispatch(ctx, p.TakeRequests())

	if count, err := p.Pending(); err == nil {
		metricPendingOperations().Set(int64(len(count)))
	}
	return nil
}

func (n *Node) writeEvents(env pool.Env, events []*pool.Event) {
	if n.logWriter == nil || len(events) == 0 {
		return
	}
	out := make([]*logdb.Event, 0, len(events))
	for _, ev := range events {
		out = append(out, &logdb.Event{
			Kind:     string(ev.Kind),
			Account:  ev.Account,
			Provider: ev.Provider,
			Amount:   ev.Amount,
			Extra:    ev.Shares,
			OpID:     uint64(ev.OpID),
		})
	}
	n.logWorker.Run(func() error {
		if err := n.logWriter.Write(uint32(env.Height), env.Epoch, out); err != nil {
			_ = n.logWriter.Rollback()
			return err
		}
		return n.logWriter.Commit()
	})
}

// drainAnswers collects first and every answer already queued.
func (n *Node) drainAnswers(first *answer) []*answer {
	answers := []*answer{first}
	for {
		select {
		case a := <-n.answerCh:
			answers = append(answers, a)
		default:
			return answers
		}
	}
}

// resolve applies provider answers in a single step.
func (n *Node) resolve(ctx context.Context, answers []*answer) {
	n.mu.Lock()
	for _, a := range answers {
		delete(n.inflight, a.id)
	}
	n.mu.Unlock()

	err := n.step(ctx, func(p *pool.Pool) error {
		for _, a := range answers {
			if err := p.Resolve(a.id, a.res); err != nil {
				// a declined resolve changed nothing, the others still apply
				logger.Warn("failed to resolve", "id", a.id, "err", err)
			}
		}
		return nil
	})
	if err != nil {
		logger.Error("failed to commit answers", "err", err)
	}
}

// redispatch sends again every request still pending in storage.
func (n *Node) redispatch(ctx context.Context) error {
	var pending []*pool.Request
	if err := n.View(func(p *pool.Pool) (err error) {
		pending, err = p.Pending()
		return
	}); err != nil {
		return err
	}
	if len(pending) > 0 {
		logger.Info("re-sending pending requests", "count", len(pending))
	}
	n.dispatch(ctx, pending)
	return nil
}
