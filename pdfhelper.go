// Package pdfhelper provides a Go client for a PDF question-answering backend.
//
// The backend exposes two HTTP endpoints (document listing and PDF upload) and
// a WebSocket chat endpoint that streams answers fragment by fragment. The
// package wraps all three and models the client-side state a front end needs:
// the chat transcript, the in-flight answer buffer, the upload status and the
// current document list.
//
// # Thread Safety
//
// [Client], [ChatSession], [Uploader] and [Lister] are safe for concurrent use
// by multiple goroutines. Only one answer can be pending per [ChatSession].
// An [AnswerStream] should only be consumed by a single goroutine.
//
// # Basic Usage
//
//	ctx := context.Background()
//
//	client, err := pdfhelper.New("http://localhost:8000")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	docs, err := client.ListDocuments(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(docs)
//
//	chat, err := client.OpenChat(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer chat.Close()
//
//	stream, err := chat.Send(ctx, "What is X?")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for fragment, err := range stream.Chunks(ctx) {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Print(fragment.Text)
//	}
//
// # Completion
//
// The chat protocol has no explicit end-of-answer event. An answer is complete
// when a fragment contains the completion marker ([DefaultCompletionMarker]
// unless changed with [WithCompletionMarker]). If no such fragment arrives
// within the response timeout, whatever was received is committed as the
// answer.
//
// # Observability
//
// Use [WithLogger], [WithSessionLogger], [WithOnEvent], [WithOnSend] and
// [WithOnReceive] to add logging and monitoring:
//
//	chat, err := client.OpenChat(ctx,
//	    pdfhelper.WithSessionLogger(log.Logger),
//	    pdfhelper.WithOnEvent(func(ev pdfhelper.Event) {
//	        program.Send(ev)
//	    }),
//	)
package pdfhelper
