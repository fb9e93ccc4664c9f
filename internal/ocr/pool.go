package ocr

import (
	"context"
	"runtime"

	"github.com/otiai10/gosseract/v2"
)

// clientPool bounds concurrent tesseract use. gosseract clients wrap a C
// tesseract handle and are not safe for concurrent calls, so each extraction
// borrows a dedicated client for its whole duration.
type clientPool struct {
	clients chan *gosseract.Client
	size    int
}

func newClientPool(size int, language string) (*clientPool, error) {
	if size <= 0 {
		size = runtime.NumCPU()
	}

	pool := &clientPool{
		clients: make(chan *gosseract.Client, size),
		size:    size,
	}
	for i := 0; i < size; i++ {
		client := gosseract.NewClient()
		if err := client.SetLanguage(language); err != nil {
			client.Close()
			pool.Close()
			return nil, err
		}
		pool.clients <- client
	}
	return pool, nil
}

// acquire blocks until a client is free or the context is done.
func (p *clientPool) acquire(ctx context.Context) (*gosseract.Client, error) {
	select {
	case client := <-p.clients:
		return client, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *clientPool) release(client *gosseract.Client) {
	p.clients <- client
}

// Close tears down every idle client. Callers must have returned all
// borrowed clients before closing.
func (p *clientPool) Close() error {
	var firstErr error
	for i := 0; i < p.size; i++ {
		select {
		case client := <-p.clients:
			if err := client.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		default:
		}
	}
	return firstErr
}
