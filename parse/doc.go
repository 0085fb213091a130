// Package parse provides a client for the Parse Server REST API.
//
// Parse Server is a document store fronted by a REST protocol: objects live in
// classes, are queried with a JSON "where" document, and every request is
// authenticated by an application id plus one credential (session token,
// master key, JavaScript key or REST API key).
//
// # Architecture
//
// The package is organized around a small core:
//
//   - AuthResolver (auth.go): decides which credential a call carries
//   - Query / compiler (query.go, compile.go): fluent constraint builder that
//     compiles deterministically into URL parameters
//   - Client (client.go): the request dispatcher that builds the URL, attaches
//     headers, sends and decodes
//   - Errors (errors.go): the protocol error table and the typed Error value
//   - Executor (executor.go): find, first, get, count, distinct and aggregate
//
// Object, user, cloud function, file and server endpoints are thin wrappers on
// top of the dispatcher.
//
// # Usage
//
//	logger := zerolog.New(os.Stderr)
//	client, err := parse.NewClient(
//		"http://localhost:1337/parse",
//		"myAppId",
//		logger,
//		parse.WithMasterKey("myMasterKey"),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	q := parse.NewQuery("GameScore").
//		EqualTo("playerName", parse.String("Sean Plott")).
//		GreaterThan("score", parse.Int(1000)).
//		OrderByDescending("score").
//		Limit(10)
//
//	scores, err := client.FindObjects(ctx, q)
//
// # Sessions
//
// A Client never changes after construction. LogIn, SignUp and Become return a
// new Client bound to the resulting session token and LogOut returns one with
// the token removed, so the session a request runs under is always the one
// held by the caller.
//
// # Error Handling
//
// Every failure is a *Error. Its Origin tells local misconfiguration,
// transport failures, server-reported errors and undecodable responses apart;
// its Kind classifies the protocol error code:
//
//	var perr *parse.Error
//	if errors.As(err, &perr) && perr.Temporary() {
//		// retry later
//	}
//	if errors.Is(err, parse.ErrObjectNotFound) {
//		// fix the call
//	}
package parse
