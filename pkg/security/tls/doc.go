/*
Package tls serves the Waypoint API over HTTPS.

TLS is configured under server.tls:

	server:
	  tls:
	    enabled: true
	    cert_file: /etc/waypoint/tls/tls.crt
	    key_file: /etc/waypoint/tls/tls.key
	    min_version: "1.3"
	    reload_interval: 5m

The pair is loaded and validated at startup; an expired or not-yet-valid
certificate fails the server. A Reloader then polls both files and swaps in
renewed certificates on the next handshake:

	reloader, tlsConfig, err := tls.Setup(cfg.Server.TLS, logger)
	if err != nil {
		return err
	}
	go reloader.Run(ctx)
	ln = cryptotls.NewListener(ln, tlsConfig)

Certificates expiring within 30 days are logged at warn level on every load.
*/
package tls
