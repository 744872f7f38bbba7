// Package errors provides coded, actionable error messages for the wstask CLI.
//
// Every error the command line reports to a user carries a code that maps to
// a short message and a longer explanation:
//
//   - W1xx: configuration (config file, flags)
//   - W2xx: connection (URL, handshake, echo)
//   - W3xx: transcript (file and S3 sinks)
//
// # Usage
//
//	err := errors.New("W102").
//	    WithLocation("wstask.json", 4, 17).
//	    WithSuggestion("Remove the trailing comma after \"mode\"")
//
//	fmt.Fprint(os.Stderr, err.Format())
//	// Output:
//	// ERROR W102: Invalid config file
//	//
//	//   wstask.json:4:17
//	//
//	//     3 │   "url": "ws://localhost:8080/ws",
//	//   → 4 │   "mode": "both",
//	//       │                 ^
//	//     5 │ }
//	//
//	//   Hint: Remove the trailing comma after "mode"
//
// Package-level sentinels elsewhere in the module stay plain errors; this
// package only wraps them at the CLI boundary.
package errors
