package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/gekko3d/blockwalk"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "", "path to a YAML config (default $"+blockwalk.ConfigEnv+")")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	cfg, err := blockwalk.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	app := blockwalk.NewAppBuilder().
		UseStates(blockwalk.Initializing, blockwalk.Unloading).
		UseModule(
			blockwalk.LoggingModule{Prefix: cfg.Log.Prefix, Debug: cfg.Log.Debug || *debug},
			blockwalk.TimeModule{},
			blockwalk.LifecycleModule{},
			blockwalk.NewPlatformWindow(cfg.Window),
			blockwalk.InputModule{Bindings: cfg.Bindings},
			blockwalk.WorldModule{Config: cfg.World},
			blockwalk.FirstPersonCameraModule{Config: cfg.Camera},
			blockwalk.AssetServerModule{Textures: cfg.Textures},
			blockwalk.BlockRendererModule{},
			blockwalk.ProfilerModule{Config: cfg.Metrics},
		).
		Build()

	app.Run()

	if lc := blockwalk.Resource[blockwalk.Lifecycle](app); lc != nil && lc.Failed() {
		os.Exit(1)
	}
}
