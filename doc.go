// Package usdsearch is the client SDK for the USD Search pipeline: it turns a
// natural-language description into an authenticated search request, decodes
// the returned thumbnails to disk, and exposes the results as UI-agnostic
// models.
//
// The Client embeds a query controller that keeps at most one request in
// flight: submitting a new query supersedes (cancels) the previous one, and a
// superseded completion never overwrites newer results.
//
//	client, err := usdsearch.New(
//		usdsearch.WithHostURL("https://ai.api.nvidia.com/v1/omniverse/nvidia/usdsearch"),
//		usdsearch.WithAPIKey(os.Getenv("NVIDIA_API_KEY")),
//		usdsearch.WithOnUpdate(rebuildPanel),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	client.Submit("red office chair", "")
package usdsearch
