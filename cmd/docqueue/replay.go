package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tomasbasham/docqueue"
)

type command struct {
	Op        string            `json:"op"`
	Provider  docqueue.Provider `json:"provider"`
	UserID    int               `json:"user_id"`
	Timestamp time.Time         `json:"timestamp"`
}

type result struct {
	Op         string            `json:"op"`
	Size       *int              `json:"size,omitempty"`
	TaskID     string            `json:"task_id,omitempty"`
	Provider   docqueue.Provider `json:"provider,omitempty"`
	UserID     *int              `json:"user_id,omitempty"`
	AgeSeconds *int64            `json:"age_seconds,omitempty"`
	Error      string            `json:"error,omitempty"`
}

var errUnknownOp = errors.New("unknown operation")

// replay applies every command read from r to q. Failed operations are
// reported in the output and do not stop the replay; only I/O errors and
// context cancellation do.
func replay(ctx context.Context, q *docqueue.Queue, r io.Reader, w io.Writer) error {
	enc := json.NewEncoder(w)
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var cmd command
		res := result{}
		if err := json.Unmarshal([]byte(line), &cmd); err != nil {
			res.Error = fmt.Sprintf("malformed command: %v", err)
		} else {
			res = apply(q, cmd)
		}

		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("failed to write result: %w", err)
		}
	}
	return scanner.Err()
}

func apply(q *docqueue.Queue, cmd command) result {
	res := result{Op: cmd.Op}

	switch cmd.Op {
	case "enqueue":
		size, err := q.Enqueue(cmd.Provider, cmd.UserID, cmd.Timestamp)
		if err != nil {
			res.Error = err.Error()
			break
		}
		res.Size = &size
	case "dequeue", "peek":
		next := q.Dequeue
		if cmd.Op == "peek" {
			next = q.Peek
		}
		rec, err := next()
		if err != nil {
			res.Error = err.Error()
			break
		}
		res.TaskID = rec.ID.String()
		res.Provider = rec.Provider
		res.UserID = &rec.UserID
	case "size":
		size := q.Size()
		res.Size = &size
	case "age":
		age := int64(q.Age() / time.Second)
		res.AgeSeconds = &age
	case "purge":
		q.Purge()
		size := q.Size()
		res.Size = &size
	default:
		res.Error = fmt.Sprintf("%v: %q", errUnknownOp, cmd.Op)
	}
	return res
}
