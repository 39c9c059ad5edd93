// Package httputil provides HTTP helpers shared by registry clients.
//
// [Retry] re-runs an operation with exponential backoff while it fails with
// a [RetryableError]. Clients decide what is transient:
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return httputil.Retryable(err)
//	    }
//	    defer resp.Body.Close()
//	    if httputil.RetryableStatus(resp.StatusCode) {
//	        return httputil.Retryable(fmt.Errorf("status %d", resp.StatusCode))
//	    }
//	    return decode(resp.Body)
//	})
//
// The default for registry lookups is a single attempt. Callers opt in to
// more through their client options.
package httputil
