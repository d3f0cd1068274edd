// Package webclient assembles the session layer of the danmaku web client.
//
// New wires a cookie jar, the request id and CSRF transports, the accounts
// API client, snapshot persistence and the auth.Store from a single Config.
// The storage driver decides where the remembered user and the cookies live:
// in memory, in files under StorageDir or in Redis. When SealKey and
// DeviceKey are set the stored user is encrypted at rest.
//
//	cfg, err := webclient.LoadConfig()
//	if err != nil {
//		return err
//	}
//	client, err := webclient.New(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close(ctx)
//
//	if err := client.Start(ctx); err != nil {
//		// the handshake failed; the session state is still usable
//		log.Println(err)
//	}
//	fmt.Println(client.Store().IsAuthenticated())
package webclient
