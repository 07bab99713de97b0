// Package googlespeech implements speech.Recognizer on top of the Google Cloud
// Speech-to-Text long-running recognition API.
//
// Every RPC is issued with a gax retry on transient gRPC codes, bounded by the
// configured deadline. Operation names returned by LongRunningRecognize are
// used directly as job handles and are re-hydrated for polling, so no client
// state survives between calls.
package googlespeech
