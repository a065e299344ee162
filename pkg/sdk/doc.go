// Package sdk provides a Go client for the contentdex content-search API.
//
// Search calls return the same response envelope the HTTP API uses: failures
// are carried inside the envelope, so a non-nil error from a search method
// means the request never produced a response at all (network failure,
// undecodable body).
//
//	client := sdk.New("https://contentdex.internal", sdk.WithToken(token))
//	resp, err := client.SearchText(ctx, userID, "golang concurrency", sdk.SearchOptions{})
//	if err != nil { ... }          // transport failure
//	if resp.Error != nil { ... }   // classified search failure
//
// Record operations return plain errors; use errors.Is with the exported
// sentinels to classify them.
package sdk
