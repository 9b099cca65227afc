// Package services implements the dataset layer between the loaders and
// the HTTP, WebSocket and CLI surfaces.
//
// # Loading
//
// Loader fetches the five indicator tables and the country metadata
// concurrently, builds the name index and merges everything into a
// DataSource. A failure in any step fails the whole load.
//
//	loader := services.NewLoader(fetcher, cfg.Sources, overrides, logger)
//	ds, err := loader.LoadData(ctx)
//
// # Serving
//
// A DataSource never changes after it is built. DataService holds the
// current one behind a read-write lock and replaces it on Reload, so
// handlers only ever see complete datasets:
//
//	svc := services.NewDataService(loader, logger, services.WithBroadcaster(hub))
//	if err := svc.Load(ctx); err != nil {
//	    return err
//	}
//	go svc.RunReloader(ctx, cfg.Sources.ReloadInterval)
//
// Animator walks the years on a timer and broadcasts one scatter frame per
// tick to connected clients.
package services
