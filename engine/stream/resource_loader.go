// Package stream resolves the deferred buffer and texture bindings of an imported asset: it
// gathers the source bytes from the document, data URIs or a file system and copies them into
// the destination vertex buffers, index buffers and material instances.
package stream

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"net/url"
	"path"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/winnerineast/filament/common"
	"github.com/winnerineast/filament/engine/loader"
	"github.com/winnerineast/filament/engine/profiler"
	"github.com/winnerineast/filament/engine/renderer/material"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp"
)

var (
	errNoFileSystem = errors.New("external URI with no file system configured")
	errEmptyURI     = errors.New("source has neither bytes nor a URI")
	errBadDataURI   = errors.New("malformed data URI")
)

// resourceLoader is the implementation of the ResourceLoader interface.
type resourceLoader struct {
	mu sync.Mutex

	logger   *zap.Logger
	fsys     fs.FS
	profiler *profiler.Profiler

	workers     int
	queueSize   int
	idleTimeout time.Duration
	pool        worker.DynamicWorkerPool

	// uriCache holds external bytes by URI so assets sharing files read them once.
	uriCache map[string][]byte
}

// ResourceLoader fills the buffers and textures of imported assets.
// Thread-safe for concurrent access.
type ResourceLoader interface {
	// LoadResources resolves every buffer and texture binding of an asset. Bindings are applied
	// in parallel on the loader's worker pool. Every failure is reported, joined into one error.
	//
	// Parameters:
	//   - ctx: cancels the remaining work
	//   - asset: the asset whose bindings are resolved
	//
	// Returns:
	//   - error: nil when every binding was applied
	LoadResources(ctx context.Context, asset loader.Asset) error

	// ClearCache drops the cached external file contents.
	ClearCache()
}

var _ ResourceLoader = &resourceLoader{}

// NewResourceLoader creates a new ResourceLoader with the options applied.
// The worker pool defaults to 4 workers, a queue of 256 tasks and a 1 second idle timeout.
//
// Parameters:
//   - options: a variadic list of ResourceLoaderBuilderOption functions
//
// Returns:
//   - ResourceLoader: the configured resource loader
func NewResourceLoader(options ...ResourceLoaderBuilderOption) ResourceLoader {
	r := &resourceLoader{
		workers:     4,
		queueSize:   256,
		idleTimeout: time.Second,
		uriCache:    make(map[string][]byte),
	}
	for _, option := range options {
		option(r)
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	r.logger = r.logger.Named("stream")
	if r.profiler == nil {
		r.profiler = profiler.NewProfiler(r.logger)
	}
	r.pool = worker.NewDynamicWorkerPool(r.workers, r.queueSize, r.idleTimeout)
	return r
}

// errorSink collects task errors from several goroutines.
type errorSink struct {
	mu   sync.Mutex
	errs []error
}

func (s *errorSink) add(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, err)
}

func (s *errorSink) err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return errors.Join(s.errs...)
}

// run executes jobs on the worker pool and waits for all of them. Jobs not yet started when ctx
// is cancelled are skipped.
func (r *resourceLoader) run(ctx context.Context, sink *errorSink, jobs []func() error) {
	var wg sync.WaitGroup
	for id, job := range jobs {
		wg.Add(1)
		r.pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				if ctx.Err() != nil {
					return nil, nil
				}
				if err := job(); err != nil {
					sink.add(err)
					return nil, err
				}
				return nil, nil
			},
		})
	}
	wg.Wait()
}

func (r *resourceLoader) LoadResources(ctx context.Context, asset loader.Asset) error {
	if asset == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	span := r.profiler.Begin("stream")
	buffers := asset.BufferBindings()
	textures := asset.TextureBindings()

	// Pass 1: fetch every source buffer and URI image that has no bytes yet.
	sink := &errorSink{}
	var (
		fetchMu sync.Mutex
		fetched = make(map[*[]byte][]byte)
		images  = make(map[string][]byte)
		jobs    []func() error
	)
	seen := make(map[*[]byte]bool)
	fetchBuffer := func(ptr *[]byte, index int, uri string, total int) {
		if ptr == nil || len(*ptr) > 0 || seen[ptr] {
			return
		}
		seen[ptr] = true
		jobs = append(jobs, func() error {
			data, err := r.fetch(uri)
			if err != nil {
				return fmt.Errorf("buffer %d: %w", index, err)
			}
			if len(data) < total {
				return fmt.Errorf("buffer %d: %q holds %d bytes, %d declared", index, uri, len(data), total)
			}
			fetchMu.Lock()
			fetched[ptr] = data
			fetchMu.Unlock()
			return nil
		})
	}
	for _, b := range buffers {
		fetchBuffer(b.Data, b.Buffer, b.URI, b.TotalSize)
	}
	// images can live in a buffer that no vertex or index data references
	for _, t := range textures {
		fetchBuffer(t.Data, t.Buffer, t.BufferURI, t.TotalSize)
	}
	seenURI := make(map[string]bool)
	for _, t := range textures {
		if t.Data != nil || seenURI[t.URI] {
			continue
		}
		seenURI[t.URI] = true
		uri := t.URI
		jobs = append(jobs, func() error {
			data, err := r.fetch(uri)
			if err != nil {
				return fmt.Errorf("image %q: %w", uri, err)
			}
			fetchMu.Lock()
			images[uri] = data
			fetchMu.Unlock()
			return nil
		})
	}
	r.run(ctx, sink, jobs)
	if err := ctx.Err(); err != nil {
		span.End(zap.Bool("cancelled", true))
		return err
	}
	if err := sink.err(); err != nil {
		span.End(zap.Bool("failed", true))
		r.logger.Error("unable to fetch asset resources", zap.Error(err))
		return err
	}
	// the fetched bytes become the document's buffer contents
	for ptr, data := range fetched {
		*ptr = data
	}

	// Pass 2: copy every binding into its destination.
	jobs = jobs[:0]
	for i, b := range buffers {
		jobs = append(jobs, func() error {
			if err := applyBufferBinding(b); err != nil {
				return fmt.Errorf("buffer binding %d: %w", i, err)
			}
			return nil
		})
	}
	for i, t := range textures {
		jobs = append(jobs, func() error {
			if err := applyTextureBinding(t, images); err != nil {
				return fmt.Errorf("texture binding %d (%s): %w", i, t.Parameter, err)
			}
			return nil
		})
	}
	r.run(ctx, sink, jobs)
	if err := ctx.Err(); err != nil {
		span.End(zap.Bool("cancelled", true))
		return err
	}

	err := sink.err()
	span.End(
		zap.Int("buffer_bindings", len(buffers)),
		zap.Int("texture_bindings", len(textures)),
		zap.Bool("failed", err != nil),
	)
	if err != nil {
		r.logger.Error("unable to apply asset resources", zap.Error(err))
		return err
	}
	r.logger.Debug("asset resources loaded",
		zap.Int("buffer_bindings", len(buffers)),
		zap.Int("texture_bindings", len(textures)),
	)
	return nil
}

func (r *resourceLoader) ClearCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.uriCache)
}

// fetch returns the bytes a URI refers to. Data URIs are decoded in place; other URIs are read
// relative to the file system root and cached.
func (r *resourceLoader) fetch(uri string) ([]byte, error) {
	if uri == "" {
		return nil, errEmptyURI
	}
	if strings.HasPrefix(uri, "data:") {
		return decodeDataURI(uri)
	}

	r.mu.Lock()
	if data, ok := r.uriCache[uri]; ok {
		r.mu.Unlock()
		return data, nil
	}
	r.mu.Unlock()

	if r.fsys == nil {
		return nil, fmt.Errorf("%w: %q", errNoFileSystem, uri)
	}
	name, err := url.PathUnescape(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid URI %q: %w", uri, err)
	}
	name = path.Clean(strings.TrimPrefix(name, "./"))
	if !fs.ValidPath(name) {
		return nil, fmt.Errorf("URI %q escapes the asset directory", uri)
	}
	data, err := fs.ReadFile(r.fsys, name)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.uriCache[uri] = data
	r.mu.Unlock()
	return data, nil
}

// decodeDataURI returns the payload of a "data:[<mime>][;base64],<payload>" URI.
func decodeDataURI(uri string) ([]byte, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, errBadDataURI
	}
	if strings.HasSuffix(header, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errBadDataURI, err)
		}
		return data, nil
	}
	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errBadDataURI, err)
	}
	return []byte(s), nil
}

// applyBufferBinding copies the bytes of one binding into its vertex or index buffer.
func applyBufferBinding(b loader.BufferBinding) error {
	if b.GenerateTrivialIndices {
		return b.IndexBuffer.SetBuffer(trivialIndices(b.IndexBuffer.IndexCount()))
	}
	if b.Data == nil {
		return errEmptyURI
	}
	src := *b.Data
	if b.Offset < 0 || b.Size < 0 || b.Offset+b.Size > len(src) {
		return fmt.Errorf("range [%d, %d) outside %d source bytes", b.Offset, b.Offset+b.Size, len(src))
	}
	chunk := slices.Clone(src[b.Offset : b.Offset+b.Size])

	if b.IndexBuffer != nil {
		if b.ConvertBytesToShorts {
			chunk = widenBytes(chunk)
		}
		return b.IndexBuffer.SetBuffer(chunk)
	}
	return b.VertexBuffer.SetBufferAt(b.Slot, chunk)
}

// applyTextureBinding attaches the image of one binding to its material instance.
func applyTextureBinding(t loader.TextureBinding, images map[string][]byte) error {
	var data []byte
	if t.Data != nil {
		src := *t.Data
		if t.Offset < 0 || t.Size < 0 || t.Offset+t.Size > len(src) {
			return fmt.Errorf("range [%d, %d) outside %d source bytes", t.Offset, t.Offset+t.Size, len(src))
		}
		data = slices.Clone(src[t.Offset : t.Offset+t.Size])
	} else {
		data = images[t.URI]
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("unable to decode image header: %w", err)
	}
	t.MaterialInstance.SetTexture(t.Parameter, material.Texture{
		MimeType: common.Coalesce(t.MimeType, "image/"+format),
		Data:     data,
		Width:    cfg.Width,
		Height:   cfg.Height,
		Sampler:  t.Sampler,
		SRGB:     t.SRGB,
	})
	return nil
}

// widenBytes converts 8-bit indices to little-endian 16-bit indices.
func widenBytes(src []byte) []byte {
	out := make([]byte, 2*len(src))
	for i, v := range src {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(v))
	}
	return out
}

// trivialIndices returns 0..n-1 as little-endian 32-bit indices.
func trivialIndices(n int) []byte {
	out := make([]byte, 4*n)
	for i := range n {
		binary.LittleEndian.PutUint32(out[4*i:], uint32(i))
	}
	return out
}
