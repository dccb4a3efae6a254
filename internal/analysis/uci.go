// Package analysis runs concurrent, cancellable engine sessions per tab
// and streams generation-stamped evaluations back to the consumer.
package analysis

import (
	"bufio"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
)

// Proc is a running engine worker: commands go in, output lines come
// out. Protocol negotiation beyond the initial handshake stays behind
// this boundary.
type Proc interface {
	Send(cmd string) error
	ReadLine() (string, error)
	Close() error
}

// ProcFactory starts a fresh engine worker per session.
type ProcFactory func() (Proc, error)

// process wraps a UCI engine child process.
type process struct {
	cmd   *exec.Cmd
	stdin *bufio.Writer
	pipe  io.Closer
	scan  *bufio.Scanner
}

// Exec returns a factory launching the UCI engine binary at path.
func Exec(path string) ProcFactory {
	return func() (Proc, error) { return startProcess(path) }
}

func startProcess(path string) (*process, error) {
	cmd := exec.Command(path)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start engine %s: %w", path, err)
	}

	p := &process{
		cmd:   cmd,
		stdin: bufio.NewWriter(stdin),
		pipe:  stdin,
		scan:  bufio.NewScanner(stdout),
	}

	// UCI handshake.
	if err := p.Send("uci"); err != nil {
		return nil, err
	}
	if err := p.waitFor("uciok"); err != nil {
		return nil, err
	}
	if err := p.Send("isready"); err != nil {
		return nil, err
	}
	if err := p.waitFor("readyok"); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *process) Send(cmd string) error {
	if _, err := p.stdin.WriteString(cmd + "\n"); err != nil {
		return err
	}
	return p.stdin.Flush()
}

func (p *process) ReadLine() (string, error) {
	if p.scan.Scan() {
		return p.scan.Text(), nil
	}
	if err := p.scan.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (p *process) waitFor(expected string) error {
	for {
		line, err := p.ReadLine()
		if err != nil {
			return fmt.Errorf("waiting for %q: %w", expected, err)
		}
		if strings.Contains(line, expected) {
			return nil
		}
	}
}

func (p *process) Close() error {
	p.Send("quit")
	p.pipe.Close()
	return p.cmd.Wait()
}

// Info is one parsed "info ... pv ..." line.
type Info struct {
	Depth int
	Rank  int // multipv rank, 1-based
	Score Score
	Moves []string
}

// ParseInfo extracts depth, rank, score, and the principal variation
// from an engine info line. Lines without a pv (currmove chatter, upper
// bounds without lines) report ok=false.
func ParseInfo(line string) (Info, bool) {
	if !strings.HasPrefix(line, "info") {
		return Info{}, false
	}
	info := Info{Rank: 1}
	fields := strings.Fields(line)
	for i := 0; i < len(fields); i++ {
		switch fields[i] {
		case "depth":
			if i+1 < len(fields) {
				info.Depth, _ = strconv.Atoi(fields[i+1])
			}
		case "multipv":
			if i+1 < len(fields) {
				if n, err := strconv.Atoi(fields[i+1]); err == nil && n > 0 {
					info.Rank = n
				}
			}
		case "score":
			if i+2 < len(fields) {
				n, err := strconv.Atoi(fields[i+2])
				if err == nil {
					switch fields[i+1] {
					case "cp":
						info.Score = Score{CP: n, Has: true}
					case "mate":
						info.Score = Score{Mate: n, Has: true}
					}
				}
			}
		case "pv":
			info.Moves = append([]string(nil), fields[i+1:]...)
			i = len(fields)
		}
	}
	if len(info.Moves) == 0 {
		return Info{}, false
	}
	return info, true
}

// IsBestMove reports whether the line terminates a search.
func IsBestMove(line string) bool {
	return strings.HasPrefix(line, "bestmove")
}
