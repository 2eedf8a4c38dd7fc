// Package openai provides the company insight adapter.
//
// # Overview
//
// The proxy's openai endpoint (POST /api/openai) forwards a chat completion
// request to OpenAI. The adapter builds the request with the openai-go
// parameter types, decodes the reply as an openai-go ChatCompletion and
// parses the first choice's content into an [Insight].
//
// # Usage
//
//	client := openai.NewClient(integrations.Config{
//	    Proxy:      proxyClient,
//	    Cache:      store,
//	    Credential: os.Getenv("DEALPREP_OPENAI_KEY"),
//	})
//	res, err := client.Fetch(ctx, "Acme Corporation")
//	fmt.Println(res.Payload.Summary)
//
// # Validation
//
// The completion content must be a JSON object (optionally inside a
// markdown code fence) with a non-empty summary. Every listed executive
// must have a name. A reply that fails these checks is treated like a
// transport failure and answered with [Fallback].
package openai
