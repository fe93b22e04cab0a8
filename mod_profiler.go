package blockwalk

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Profiler tracks frame timing. Metrics live in a private registry, exported on /metrics
// only when an address is configured.
type Profiler struct {
	Registry *prometheus.Registry

	frameSeconds prometheus.Histogram
	frames       prometheus.Counter
	blocks       prometheus.Gauge

	reportEvery  time.Duration
	windowFrames int
	windowTime   time.Duration
	fps          float64

	server *http.Server
}

func NewProfiler(reportEvery time.Duration) *Profiler {
	p := &Profiler{
		Registry:    prometheus.NewRegistry(),
		reportEvery: reportEvery,
		frameSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "blockwalk",
			Name:      "frame_duration_seconds",
			Help:      "Time between consecutive frames.",
			Buckets:   []float64{0.004, 0.008, 0.0167, 0.033, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		frames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "blockwalk",
			Name:      "frames_total",
			Help:      "Frames rendered since start.",
		}),
		blocks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "blockwalk",
			Name:      "visible_blocks",
			Help:      "Block instances submitted per frame.",
		}),
	}
	p.Registry.MustRegister(p.frameSeconds, p.frames, p.blocks)
	return p
}

// Observe records one frame. It returns true when a report window has closed, with the
// window's average FPS available from FPS.
func (p *Profiler) Observe(dt time.Duration, visibleBlocks uint32) bool {
	p.frameSeconds.Observe(dt.Seconds())
	p.frames.Inc()
	p.blocks.Set(float64(visibleBlocks))

	p.windowFrames++
	p.windowTime += dt
	if p.reportEvery <= 0 || p.windowTime < p.reportEvery {
		return false
	}
	p.fps = float64(p.windowFrames) / p.windowTime.Seconds()
	p.windowFrames = 0
	p.windowTime = 0
	return true
}

func (p *Profiler) FPS() float64 {
	return p.fps
}

func (p *Profiler) Handler() http.Handler {
	return promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{})
}

// Serve starts the /metrics endpoint in the background. Listen errors are returned directly.
func (p *Profiler) Serve(addr string, log Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics listen %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", p.Handler())
	p.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := p.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("metrics server: %v", err)
		}
	}()
	log.Infof("metrics available at http://%s/metrics", ln.Addr())
	return nil
}

func (p *Profiler) Shutdown(ctx context.Context) error {
	if p.server == nil {
		return nil
	}
	err := p.server.Shutdown(ctx)
	p.server = nil
	return err
}

type ProfilerModule struct {
	Config MetricsConfig
}

func (mod ProfilerModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(NewProfiler(mod.Config.ReportInterval))

	addr := mod.Config.Addr
	app.UseSystem(
		System(func(p *Profiler, log Logger) {
			if addr == "" {
				return
			}
			// A listen failure is logged and the app keeps running without metrics.
			if err := p.Serve(addr, log); err != nil {
				log.Warnf("%v", err)
			}
		}).
			InStage(PostRender).
			InState(OnEnter(Initializing)),
	)
	app.UseSystem(
		System(profilerSystem).
			InStage(PostRender).
			InState(OnExecute(Running)),
	)
	app.UseSystem(
		System(profilerStopSystem).
			InStage(PostRender).
			InState(OnEnter(Unloading)),
	)
}

func profilerSystem(p *Profiler, t *Time, r *BlockRenderer, log Logger) {
	if p.Observe(t.Dt, r.InstanceCount()) {
		log.Infof("%.1f fps, %d blocks drawn", p.FPS(), r.InstanceCount())
	}
}

func profilerStopSystem(p *Profiler, log Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := p.Shutdown(ctx); err != nil {
		log.Warnf("metrics shutdown: %v", err)
	}
}
