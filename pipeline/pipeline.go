// Package pipeline drives the scene compilation stages end to end and owns
// the host-facing control surface: compile a scene graph, compile an
// environment panorama, patch a single material in place, dispose. Heavy
// stages run on a bounded background worker pool with synchronous fallback.
package pipeline

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/altair-render/altair/compiler"
	"github.com/altair-render/altair/compiler/bvh"
	"github.com/altair-render/altair/envmap"
	"github.com/altair-render/altair/log"
	"github.com/altair-render/altair/packer"
	"github.com/altair-render/altair/scene"
)

// Pipeline configuration.
type Options struct {
	// Background worker count. Defaults to min(4, GOMAXPROCS).
	Workers int

	// Retention budget for the buffer pool.
	PoolBytes int64

	BVH    bvh.Options
	Env    envmap.Options
	Images packer.ImageOptions
}

func DefaultOptions() Options {
	workers := runtime.GOMAXPROCS(0)
	if workers > 4 {
		workers = 4
	}
	return Options{
		Workers:   workers,
		PoolBytes: packer.DefaultPoolBytes,
		BVH:       bvh.DefaultOptions(),
		Env:       envmap.DefaultOptions(),
		Images:    packer.DefaultImageOptions(),
	}
}

// The packed output of a scene compile. Buffer references stay valid until
// the next successful compile (which releases them) or Dispose.
type SceneBuffers struct {
	Materials *packer.Buffer
	Triangles *packer.Buffer
	Nodes     *packer.Buffer
	Images    [scene.NumMapSlots]*packer.Buffer

	Stats CompileStats
}

// The packed output of an environment compile.
type EnvBuffers struct {
	Distribution *envmap.Distribution
	Table        *packer.Buffer
}

type Pipeline struct {
	logger  log.Logger
	opts    Options
	pool    *packer.Pool
	workers *workerPool

	sceneBusy atomic.Bool
	envBusy   atomic.Bool
	closed    atomic.Bool

	// Guards the retained outputs and the material record mirror.
	mu        sync.Mutex
	lastScene *SceneBuffers
	lastEnv   *EnvBuffers
	materials []compiler.MaterialRecord
}

func New(opts Options) *Pipeline {
	def := DefaultOptions()
	if opts.Workers <= 0 {
		opts.Workers = def.Workers
	}
	if opts.PoolBytes <= 0 {
		opts.PoolBytes = def.PoolBytes
	}
	return &Pipeline{
		logger:  log.New("pipeline"),
		opts:    opts,
		pool:    packer.NewPool(opts.PoolBytes),
		workers: newWorkerPool(opts.Workers),
	}
}

// CompileScene runs extraction, BVH construction and buffer packing over a
// scene graph. A second call while one is in flight is rejected with
// ErrAlreadyProcessing; a failed compile leaves the previous scene buffers
// untouched.
func (p *Pipeline) CompileScene(root *scene.Node) (*SceneBuffers, error) {
	if p.closed.Load() {
		return nil, ErrPipelineClosed
	}
	if !p.sceneBusy.CompareAndSwap(false, true) {
		return nil, ErrAlreadyProcessing
	}
	defer p.sceneBusy.Store(false)

	start := time.Now()
	p.logger.Notice("compiling scene")

	var stats CompileStats

	stageStart := time.Now()
	ex, err := compiler.Extract(root)
	if err != nil {
		return nil, err
	}
	stats.ExtractTime = time.Since(stageStart)

	stageStart = time.Now()
	var tree *bvh.Tree
	err = p.workers.dispatch(func() error {
		var buildErr error
		tree, buildErr = bvh.Build(ex.Triangles, p.opts.BVH)
		return buildErr
	})
	if err != nil {
		return nil, err
	}
	stats.BVHTime = time.Since(stageStart)

	stageStart = time.Now()
	out := &SceneBuffers{
		Materials: packer.PackMaterials(ex.Materials, p.pool),
		Triangles: packer.PackTriangles(tree.Triangles, p.pool),
		Nodes:     packer.PackNodes(tree.Nodes, p.pool),
	}

	// The image categories are independent once material data is fixed;
	// pack them concurrently, each on its own worker slot when available.
	var wg sync.WaitGroup
	for slot := scene.MapSlot(0); slot < scene.NumMapSlots; slot++ {
		wg.Add(1)
		go func(slot scene.MapSlot) {
			defer wg.Done()
			_ = p.workers.dispatch(func() error {
				out.Images[slot] = packer.PackImages(ex.Slots[slot], p.pool, p.opts.Images)
				return nil
			})
		}(slot)
	}
	wg.Wait()
	stats.PackTime = time.Since(stageStart)

	stats.Triangles = len(tree.Triangles)
	stats.Materials = len(ex.Materials)
	stats.Nodes = len(tree.Nodes)
	stats.Images = ex.Slots.Count()
	stats.EmissiveCount = ex.EmissiveCount
	stats.SkippedMeshes = ex.SkippedMeshes
	stats.TotalTime = time.Since(start)
	out.Stats = stats

	p.mu.Lock()
	prev := p.lastScene
	p.lastScene = out
	p.materials = ex.Materials
	p.mu.Unlock()
	if prev != nil {
		releaseSceneBuffers(prev)
	}

	p.logger.Noticef("compiled scene in %d ms (%d triangles, %d nodes, %d materials)",
		stats.TotalTime.Nanoseconds()/1e6, stats.Triangles, stats.Nodes, stats.Materials)
	return out, nil
}

// CompileEnvironment rebuilds the environment sampling table. Independent
// of scene compiles; rejected only when another environment compile is in
// flight.
func (p *Pipeline) CompileEnvironment(img *scene.Image) (*EnvBuffers, error) {
	if p.closed.Load() {
		return nil, ErrPipelineClosed
	}
	if !p.envBusy.CompareAndSwap(false, true) {
		return nil, ErrAlreadyProcessing
	}
	defer p.envBusy.Store(false)

	var dist *envmap.Distribution
	err := p.workers.dispatch(func() error {
		var buildErr error
		dist, buildErr = envmap.Build(img, p.opts.Env)
		return buildErr
	})
	if err != nil {
		return nil, err
	}

	out := &EnvBuffers{
		Distribution: dist,
		Table:        envmap.PackDistribution(dist, p.pool),
	}

	p.mu.Lock()
	prev := p.lastEnv
	p.lastEnv = out
	p.mu.Unlock()
	if prev != nil && prev.Table != nil {
		prev.Table.Release()
	}

	return out, nil
}

// UpdateMaterial applies a partial patch to one material record and
// re-encodes its pixels in the packed material buffer, without recompiling
// the scene.
func (p *Pipeline) UpdateMaterial(index int, patch MaterialPatch) error {
	if p.closed.Load() {
		return ErrPipelineClosed
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.lastScene == nil || p.lastScene.Materials == nil {
		return ErrNoCompiledScene
	}
	if index < 0 || index >= len(p.materials) {
		return ErrMaterialIndex
	}

	patch.apply(&p.materials[index])
	packer.EncodeMaterial(&p.materials[index], p.lastScene.Materials.Float[index*packer.MaterialPixels*4:])
	return nil
}

// The most recent successful outputs; nil before the first compile. A
// failed compile never clears these.
func (p *Pipeline) LastScene() *SceneBuffers {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastScene
}

func (p *Pipeline) LastEnvironment() *EnvBuffers {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastEnv
}

// Pool usage counters, for diagnostics.
func (p *Pipeline) PoolStats() packer.PoolStats {
	return p.pool.Stats()
}

// Dispose releases all retained buffers and shuts the worker pool down.
// The pipeline cannot be reused afterwards.
func (p *Pipeline) Dispose() {
	if !p.closed.CompareAndSwap(false, true) {
		return
	}
	p.workers.close()

	p.mu.Lock()
	lastScene := p.lastScene
	lastEnv := p.lastEnv
	p.lastScene = nil
	p.lastEnv = nil
	p.materials = nil
	p.mu.Unlock()

	if lastScene != nil {
		releaseSceneBuffers(lastScene)
	}
	if lastEnv != nil && lastEnv.Table != nil {
		lastEnv.Table.Release()
	}
	p.pool.Close()
}

func releaseSceneBuffers(buffers *SceneBuffers) {
	for _, buf := range []*packer.Buffer{buffers.Materials, buffers.Triangles, buffers.Nodes} {
		if buf != nil {
			buf.Release()
		}
	}
	for _, buf := range buffers.Images {
		if buf != nil {
			buf.Release()
		}
	}
}
