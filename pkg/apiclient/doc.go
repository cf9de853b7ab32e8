// Package apiclient holds the HTTP plumbing shared by the vendor clients.
//
// A Client rate limits every request, adds default headers and credentials,
// maps error statuses to pkg/errors kinds and retries the transient ones:
//
//	401, 403  auth
//	404       not_found
//	429       rate_limit (retried)
//	5xx       server_error (retried)
//
// Transport failures are network errors and are retried as well.
package apiclient
