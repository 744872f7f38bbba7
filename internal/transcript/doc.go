// Package transcript records the traffic of a connection as JSON lines and
// stores it in a local directory or an S3 bucket.
//
// A Recorder collects entries in memory while a session runs. Flush writes
// them once, as <recorder-id>.jsonl, to a Sink:
//
//	rec := transcript.NewRecorder()
//	rec.Status(task.ID(), websocket.StatusOpened)
//	...
//	sink, _ := transcript.Open("s3://my-bucket/runs", transcript.S3Options{Region: "us-east-1"})
//	location, err := rec.Flush(ctx, sink)
package transcript
