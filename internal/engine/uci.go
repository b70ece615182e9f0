package engine

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/alexk/chessinsight/internal/errors"
	"github.com/alexk/chessinsight/internal/logger"
)

// UCIEngine is a Session backed by one spawned UCI engine process. Output
// is consumed by a pump goroutine so that deadlines hold even when the
// engine is alive but silent.
type UCIEngine struct {
	path string
	log  *logger.Logger

	mu    sync.Mutex
	cmd   *exec.Cmd
	stdin ioWriter

	lines   chan string
	readErr chan error
	done    chan struct{}
}

type ioWriter interface {
	Write([]byte) (int, error)
}

var _ Session = (*UCIEngine)(nil)

// NewUCIEngine spawns the engine binary and completes the UCI handshake.
func NewUCIEngine(path string, threads int) (*UCIEngine, error) {
	log := logger.Default().WithPrefix("uci")

	if path == "" {
		path = "stockfish"
	}

	log.Info("starting engine: %s", path)
	cmd := exec.Command(path)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		log.Error("failed to create stdin pipe: %v", err)
		return nil, errors.NewEngineUnavailableError(err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		log.Error("failed to create stdout pipe: %v", err)
		return nil, errors.NewEngineUnavailableError(err)
	}

	e := &UCIEngine{
		path:    path,
		log:     log,
		cmd:     cmd,
		stdin:   stdin,
		lines:   make(chan string),
		readErr: make(chan error, 1),
		done:    make(chan struct{}),
	}

	if err := cmd.Start(); err != nil {
		log.Error("failed to start engine: %v", err)
		return nil, errors.NewEngineUnavailableError(err)
	}
	go e.pump(bufio.NewReader(stdout))

	if err := e.init(threads); err != nil {
		log.Error("failed to initialize UCI: %v", err)
		_ = cmd.Process.Kill()
		return nil, errors.NewEngineUnavailableError(err)
	}

	log.Info("engine ready")
	return e, nil
}

// pump forwards engine output line by line until the process exits or the
// session is closed.
func (e *UCIEngine) pump(r *bufio.Reader) {
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			select {
			case e.readErr <- err:
			case <-e.done:
			}
			return
		}
		select {
		case e.lines <- strings.TrimSpace(line):
		case <-e.done:
			return
		}
	}
}

func (e *UCIEngine) init(threads int) error {
	if err := e.send("uci"); err != nil {
		return err
	}
	if err := e.waitFor("uciok", 2*time.Second); err != nil {
		return err
	}
	if threads > 1 {
		if err := e.send(fmt.Sprintf("setoption name Threads value %d", threads)); err != nil {
			return err
		}
	}
	if err := e.send("isready"); err != nil {
		return err
	}
	return e.waitFor("readyok", 2*time.Second)
}

func (e *UCIEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cmd == nil {
		return nil
	}

	e.log.Debug("closing engine")
	_ = e.sendLocked("quit")
	close(e.done)
	err := e.cmd.Wait()
	e.cmd = nil

	if err != nil {
		e.log.Debug("engine process exited: %v", err)
	}
	return err
}

// Evaluate scores one position. The full position is re-specified per call,
// so the session carries no move-history state between evaluations.
func (e *UCIEngine) Evaluate(ctx context.Context, fen string, c Constraints) (EvalResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	depth := c.Depth
	if depth <= 0 && c.MoveTime <= 0 {
		depth = 18
	}

	log := e.log.WithFields(map[string]any{"depth": depth})
	start := time.Now()
	log.Debug("evaluating position")

	if err := e.sendLocked("position fen " + fen); err != nil {
		log.Error("failed to set position: %v", err)
		return EvalResult{}, errors.NewEngineUnavailableError(err)
	}

	var goCmd string
	if c.MoveTime > 0 {
		goCmd = fmt.Sprintf("go movetime %d", c.MoveTime.Milliseconds())
	} else {
		goCmd = fmt.Sprintf("go depth %d", depth)
	}
	if err := e.sendLocked(goCmd); err != nil {
		log.Error("failed to start search: %v", err)
		return EvalResult{}, errors.NewEngineUnavailableError(err)
	}

	// The FEN's side-to-move field decides perspective normalization.
	parts := strings.Fields(fen)
	blackToMove := len(parts) > 1 && parts[1] == "b"

	budget := 8 * time.Second
	if c.MoveTime > 0 {
		budget = 3*c.MoveTime + 2*time.Second
	}
	timer := time.NewTimer(budget)
	defer timer.Stop()

	var best EvalResult
	for {
		var line string
		select {
		case <-ctx.Done():
			log.Warn("evaluation cancelled: %v", ctx.Err())
			return EvalResult{}, ctx.Err()
		case <-timer.C:
			log.Error("evaluation timed out after %v", budget)
			return EvalResult{}, errors.NewEngineTimeoutError(fmt.Errorf("no bestmove within %v", budget))
		case err := <-e.readErr:
			log.Error("failed to read from engine: %v", err)
			return EvalResult{}, errors.NewEngineUnavailableError(err)
		case line = <-e.lines:
		}
		if strings.HasPrefix(line, "info") {
			if score, ok := parseScore(line); ok {
				best.CP = score.cp
				best.Mate = nil
				if score.isMate {
					mate := score.mateIn
					if blackToMove {
						mate = -mate
					}
					best.Mate = &mate
				}
				if blackToMove {
					best.CP = -best.CP
				}
			}
		}
		if strings.HasPrefix(line, "bestmove") {
			fields := strings.Fields(line)
			if len(fields) >= 2 && fields[1] != "(none)" {
				best.BestMove = fields[1]
			}
			log.Debug("evaluation completed in %v: cp=%.0f, bestmove=%s", time.Since(start), best.CP, best.BestMove)
			return best, nil
		}
	}
}

type uciScore struct {
	cp     float64 // side-to-move perspective, mate folded into the sentinel
	mateIn int
	isMate bool
}

// parseScore extracts a score from a UCI info line. Mate in N maps to
// +/-(MateScore - 10*N), so mate in 1 outranks mate in 2 and every mate
// outranks any centipawn score.
func parseScore(line string) (uciScore, bool) {
	parts := strings.Fields(line)
	for i := 0; i < len(parts); i++ {
		if parts[i] != "score" || i+2 >= len(parts) {
			continue
		}
		switch parts[i+1] {
		case "cp":
			if v, err := strconv.Atoi(parts[i+2]); err == nil {
				return uciScore{cp: float64(v)}, true
			}
		case "mate":
			n, err := strconv.Atoi(parts[i+2])
			if err != nil {
				break
			}
			// mate 0: the side to move is already checkmated.
			if n == 0 {
				return uciScore{cp: -MateScore, isMate: true}, true
			}
			sign := 1.0
			if n < 0 {
				sign = -1.0
				n = -n
			}
			return uciScore{cp: sign * (MateScore - float64(n)*10), mateIn: int(sign) * n, isMate: true}, true
		}
	}
	return uciScore{}, false
}

func (e *UCIEngine) send(cmd string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sendLocked(cmd)
}

func (e *UCIEngine) sendLocked(cmd string) error {
	_, err := e.stdin.Write([]byte(cmd + "\n"))
	return err
}

func (e *UCIEngine) waitFor(marker string, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case <-timer.C:
			e.log.Error("timeout waiting for %s", marker)
			return fmt.Errorf("timeout waiting for %s", marker)
		case err := <-e.readErr:
			return err
		case line := <-e.lines:
			if strings.Contains(line, marker) {
				return nil
			}
		}
	}
}
