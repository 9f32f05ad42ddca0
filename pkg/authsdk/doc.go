/*
Package authsdk is the Go client for the daybook auth service, plus the error
and payload types the service itself writes.

The service keeps tokens in HTTP-only cookies, so SDKClient behaves like a
browser: it holds a cookie jar and every call carries whatever cookies the
previous call set.

	client, err := authsdk.NewSDKClient("http://localhost:8080")
	if err != nil {
		return err
	}
	if err := client.Login(ctx, "ada@example.com", "correct horse"); err != nil {
		return err
	}
	me, err := client.Me(ctx)

Errors from the service are returned as *APIError and compare equal, with
errors.Is, to the predefined values:

	if errors.Is(err, authsdk.ErrInvalidRefreshToken) {
		// sign in again
	}
*/
package authsdk
