// Cinematch - Item-Based Collaborative Filtering Movie Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

/*
Package supervisor provides process supervision for Cinematch using suture v4.

The tree has two layers:

	RootSupervisor ("cinematch")
	├── EngineSupervisor ("engine-layer")
	│   └── ReloadService (if reload.interval > 0 or manual reload is enabled)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

The startup snapshot is built before the tree starts; the tree only runs
long-lived services. A crashed service is restarted with suture's backoff,
and supervisor events are logged through sutureslog bridged onto zerolog
(see logging.NewSlogLogger).

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(logger), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddEngineService(reloadSvc)
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    ...
	}
*/
package supervisor
