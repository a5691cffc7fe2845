// Package rag holds the shared retrieval-augmented generation types and the
// simple question answering pipeline.
//
// Documents are split (rag/splitter), embedded (rag/embedder) and stored as
// points in a vector collection (rag/store). SimplePipeline ties these
// together with a langchaingo llms.Model:
//
//	p := rag.NewSimplePipeline(embedder, client, model)
//	if err := p.Index(ctx, chunks); err != nil {
//		return err
//	}
//	answer, err := p.Ask(ctx, "What does chapter two cover?")
//
// When no stored chunk reaches the similarity threshold, Ask returns
// ErrNotEnoughContext instead of calling the model.
package rag
