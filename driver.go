package dbscan

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/bits-and-blooms/bitset"
)

// Driver runs DBSCAN over one PointSet through a RegionQuery engine.
type Driver struct {
	engine  RegionQuery
	set     *PointSet
	eps     float64
	minPts  int
	logger  *Logger
	metrics MetricsCollector
	ctx     context.Context
}

// Option defines a configuration option for the Driver.
type Option func(*Driver)

// WithLogger sets the logger for the driver.
func WithLogger(l *Logger) Option {
	return func(d *Driver) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithMetrics sets the metrics collector for the driver.
func WithMetrics(m MetricsCollector) Option {
	return func(d *Driver) {
		if m != nil {
			d.metrics = m
		}
	}
}

// WithContext makes Run stop with ctx.Err() once ctx is done.
func WithContext(ctx context.Context) Option {
	return func(d *Driver) {
		if ctx != nil {
			d.ctx = ctx
		}
	}
}

// NewDriver validates the parameters and binds engine to set, calling
// engine.Init when the engine is still unbound.
func NewDriver(engine RegionQuery, set *PointSet, eps float64, minPts int, opts ...Option) (*Driver, error) {
	if engine == nil {
		return nil, fmt.Errorf("%w: nil engine", ErrInvalidInput)
	}
	if set == nil {
		return nil, fmt.Errorf("%w: nil point set", ErrInvalidInput)
	}
	if !(eps > 0) || math.IsInf(eps, 1) {
		return nil, fmt.Errorf("%w: eps must be a finite value > 0, got %v", ErrInvalidInput, eps)
	}
	if minPts < 1 {
		return nil, fmt.Errorf("%w: minPts must be >= 1, got %d", ErrInvalidInput, minPts)
	}

	d := &Driver{
		engine:  engine,
		set:     set,
		eps:     eps,
		minPts:  minPts,
		logger:  NoopLogger(),
		metrics: NoopMetricsCollector{},
		ctx:     context.Background(),
	}
	for _, opt := range opts {
		opt(d)
	}

	switch bound := engine.Set(); {
	case bound == nil:
		start := time.Now()
		err := engine.Init(set)
		d.logger.LogEngine(d.ctx, engineKindOf(engine), set.Len(), set.Dims(), time.Since(start), err)
		if err != nil {
			return nil, err
		}
	case bound != set:
		return nil, fmt.Errorf("%w: engine is bound to a different point set", ErrEngineMisuse)
	}
	return d, nil
}

// engineKindOf names the built-in engines for logging.
func engineKindOf(e RegionQuery) EngineKind {
	switch e.(type) {
	case *ReferenceEngine:
		return EngineReference
	case *RTreeEngine:
		return EngineRTree
	case *KDTreeEngine:
		return EngineKDTree
	case *BallTreeEngine:
		return EngineBallTree
	default:
		return EngineKind(fmt.Sprintf("%T", e))
	}
}

// runState is the mutable state of one Run.
type runState struct {
	classes Classes
	core    []bool
	queued  *bitset.BitSet // refs already pushed onto the seed stack
	seeds   []PointRef
	sizes   []int
}

// Run clusters every point of the set. Points are visited in ref order and
// each expansion pops its seed set last-in first-out, so repeated runs over
// the same input produce identical ids.
func (d *Driver) Run() (*Result, error) {
	start := time.Now()
	n := d.set.Len()

	st := &runState{
		classes: make(Classes, n),
		core:    make([]bool, n),
		queued:  bitset.New(uint(n)),
	}

	nextID := 0
	for i := 0; i < n; i++ {
		if err := d.ctx.Err(); err != nil {
			return d.fail(n, start, err)
		}
		p := PointRef(i)
		if st.classes[p].Kind != Unclassified {
			continue
		}
		formed, err := d.expand(st, p, nextID)
		if err != nil {
			return d.fail(n, start, err)
		}
		if formed {
			d.logger.LogCluster(d.ctx, nextID, st.sizes[nextID])
			d.metrics.RecordCluster(st.sizes[nextID])
			nextID++
		}
	}

	res := newResult(st.classes, st.core, st.sizes)
	elapsed := time.Since(start)
	d.logger.LogRun(d.ctx, n, res.NumClusters, res.NoiseCount, elapsed, nil)
	d.metrics.RecordRun(n, res.NumClusters, res.NoiseCount, elapsed, nil)
	return res, nil
}

func (d *Driver) fail(n int, start time.Time, err error) (*Result, error) {
	elapsed := time.Since(start)
	d.logger.LogRun(d.ctx, n, 0, 0, elapsed, err)
	d.metrics.RecordRun(n, 0, 0, elapsed, err)
	return nil, err
}

// expand tries to grow cluster id from seed p. It reports false, after
// marking p as Noise, when p is not a core point.
func (d *Driver) expand(st *runState, p PointRef, id int) (bool, error) {
	nb, err := d.region(p)
	if err != nil {
		return false, err
	}
	if len(nb) < d.minPts {
		st.classes[p] = Noise
		return false, nil
	}
	st.core[p] = true
	st.sizes = append(st.sizes, 0)

	label := Classified(id)
	for _, q := range nb {
		if !st.classes[q].IsClassified() {
			st.classes[q] = label
			st.sizes[id]++
		}
	}

	st.queued.ClearAll()
	st.queued.Set(uint(p))
	st.seeds = st.seeds[:0]
	for _, q := range nb {
		if q != p {
			st.push(q)
		}
	}

	for len(st.seeds) > 0 {
		if err := d.ctx.Err(); err != nil {
			return false, err
		}
		c := st.seeds[len(st.seeds)-1]
		st.seeds = st.seeds[:len(st.seeds)-1]

		m, err := d.region(c)
		if err != nil {
			return false, err
		}
		if len(m) < d.minPts {
			continue
		}
		st.core[c] = true
		for _, q := range m {
			switch st.classes[q].Kind {
			case Unclassified:
				st.classes[q] = label
				st.sizes[id]++
				st.push(q)
			case NoiseKind:
				// Border point; it was already queried and is not core.
				st.classes[q] = label
				st.sizes[id]++
			}
		}
	}
	return true, nil
}

func (st *runState) push(q PointRef) {
	if st.queued.Test(uint(q)) {
		return
	}
	st.queued.Set(uint(q))
	st.seeds = append(st.seeds, q)
}

// region queries the ε-neighborhood of ref and reports it to the metrics
// collector.
func (d *Driver) region(ref PointRef) ([]PointRef, error) {
	start := time.Now()
	nb, err := d.engine.Region(d.set.At(ref), d.eps)
	d.metrics.RecordRegionQuery(len(nb), time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("region query for ref %d: %w", ref, err)
	}
	return nb, nil
}
