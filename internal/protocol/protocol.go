// Package protocol reads the game engine's line protocol and writes moves
// back to it.
package protocol

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"filler/internal/game"
)

const rowPrefix = 4 // "012 " before every Anfield row

var (
	ErrBadHeader = errors.New("malformed size header")
	ErrShortRow  = errors.New("row shorter than declared width")
	ErrTruncated = errors.New("input ended inside a turn")
)

// Turn is one board snapshot plus the piece to place on it.
type Turn struct {
	Grid  game.Grid
	Piece game.Piece
}

type Reader struct {
	scanner *bufio.Scanner
}

func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Reader{scanner: sc}
}

// ReadPlayer consumes the handshake line, e.g. "$$$ exec p1 : [bot]".
func (r *Reader) ReadPlayer() (game.Player, error) {
	line, err := r.next()
	if err != nil {
		return 0, err
	}
	switch {
	case strings.Contains(line, "p1"):
		return game.Player1, nil
	case strings.Contains(line, "p2"):
		return game.Player2, nil
	}
	return 0, fmt.Errorf("handshake %q: %w", line, game.ErrUnknownPlayer)
}

// ReadTurn returns io.EOF when the input ends between turns.
func (r *Reader) ReadTurn() (Turn, error) {
	header, err := r.skipTo("Anfield")
	if err != nil {
		return Turn{}, err
	}
	width, height, err := parseSize(header)
	if err != nil {
		return Turn{}, err
	}
	if _, err := r.next(); err != nil { // column ruler
		return Turn{}, truncated(err)
	}
	rows := make([]string, height)
	for i := range rows {
		line, err := r.next()
		if err != nil {
			return Turn{}, truncated(err)
		}
		if len(line) < rowPrefix+width {
			return Turn{}, fmt.Errorf("anfield row %d: %w", i, ErrShortRow)
		}
		rows[i] = line[rowPrefix : rowPrefix+width]
	}
	grid, err := game.NewGrid(rows)
	if err != nil {
		return Turn{}, fmt.Errorf("anfield: %w", err)
	}

	header, err = r.skipTo("Piece")
	if err != nil {
		return Turn{}, truncated(err)
	}
	width, height, err = parseSize(header)
	if err != nil {
		return Turn{}, err
	}
	rows = make([]string, height)
	for i := range rows {
		line, err := r.next()
		if err != nil {
			return Turn{}, truncated(err)
		}
		if len(line) < width {
			return Turn{}, fmt.Errorf("piece row %d: %w", i, ErrShortRow)
		}
		rows[i] = line[:width]
	}
	piece, err := game.NewPiece(rows)
	if err != nil {
		return Turn{}, fmt.Errorf("piece: %w", err)
	}
	return Turn{Grid: grid, Piece: piece}, nil
}

// WriteMove writes "col row", or "0 0" when there is no move.
func WriteMove(w io.Writer, p game.Placement, ok bool) error {
	if !ok {
		p = game.Placement{}
	}
	_, err := fmt.Fprintf(w, "%d %d\n", p.Col, p.Row)
	return err
}

func (r *Reader) next() (string, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimRight(r.scanner.Text(), "\r"), nil
}

func (r *Reader) skipTo(prefix string) (string, error) {
	for {
		line, err := r.next()
		if err != nil {
			return "", err
		}
		if strings.HasPrefix(line, prefix) {
			return line, nil
		}
	}
}

// parseSize reads "<Name> <width> <height>:".
func parseSize(line string) (int, int, error) {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return 0, 0, fmt.Errorf("%q: %w", line, ErrBadHeader)
	}
	width, err := strconv.Atoi(fields[1])
	if err != nil || width <= 0 {
		return 0, 0, fmt.Errorf("%q: %w", line, ErrBadHeader)
	}
	height, err := strconv.Atoi(strings.TrimSuffix(fields[2], ":"))
	if err != nil || height <= 0 {
		return 0, 0, fmt.Errorf("%q: %w", line, ErrBadHeader)
	}
	return width, height, nil
}

func truncated(err error) error {
	if errors.Is(err, io.EOF) {
		return ErrTruncated
	}
	return err
}
