// Package api exposes a delivery tree over HTTP with chi.
//
// Endpoints, mounted when their dependency is configured:
//
//	GET    /healthz                         liveness
//	GET    /readyz                          runs WithReadiness checks
//	GET    /metrics                         WithMetrics
//	POST   /deliveries/{delivery}/{action}  WithDeliveries, body NotifyRequest
//	GET    /inbox/{recipient}               WithInbox, ?unread=true&limit=&offset=&type=
//	GET    /inbox/{recipient}/count
//	POST   /inbox/{recipient}/read          {"ids": [...]}, empty marks everything
//	DELETE /inbox/{recipient}/{id}
//
// Serve runs a handler until its context is canceled and shuts down
// gracefully:
//
//	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
//	defer stop()
//	h := api.NewRouter(api.WithDeliveries(classes), api.WithInbox(box), api.WithMetrics(reg))
//	if err := api.Serve(ctx, cfg, h, log); err != nil {
//		return err
//	}
package api
