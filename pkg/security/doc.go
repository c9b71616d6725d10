/*
Package security groups the packages that decide who is calling the Waypoint
gateway and protect its credentials.

  - auth resolves the user identity of a request from a verified JWT or a
    trusted X-User-ID header.
  - fingerprint derives the client identifier that scopes rate limits.
  - secrets resolves ${secret:name} references in configuration from mounted
    files or environment variables.
  - tls serves the API over HTTPS with certificate hot reload.

# Secret references

	llm:
	  api_key: ${secret:anthropic-api-key}
	secrets:
	  dir: /var/run/secrets/waypoint

# TLS

	server:
	  tls:
	    enabled: true
	    cert_file: /etc/waypoint/tls/tls.crt
	    key_file: /etc/waypoint/tls/tls.key
*/
package security
