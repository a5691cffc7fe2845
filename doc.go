// Package ragagents is a collection of retrieval-augmented generation tools
// and tool-calling agents built on langchaingo.
//
// The module is organised as a set of small libraries with thin command line
// programs on top of them.
//
// # Retrieval
//
// The rag package holds the document and vector store abstractions:
//
//   - rag/loader reads PDF and text files
//   - rag/splitter cuts text into overlapping chunks
//   - rag/embedder turns text into vectors, either locally with a hashing
//     embedder or through an embedding API
//   - rag/store keeps named collections of points with cosine search
//
// The store package opens a collection backend (memory, SQLite, Redis or
// PostgreSQL) from configuration. rag.SimplePipeline answers questions from
// the best matching chunks and refuses when nothing relevant was found.
//
// # Subtitles and recommendations
//
// The subtitle package downloads YouTube subtitles with yt-dlp, parses WebVTT
// into timed segments and indexes them per playlist or channel. The recommend
// package builds user rating vectors from the MovieLens data set and ranks
// movies for a new user by their nearest neighbours.
//
// # Agents
//
// The agent package runs LLM agents that call tools, hand work to sub-agents
// and keep per-session state:
//
//	llm, _ := openai.New()
//	root, _ := weather.New(llm)
//	runner := agent.NewRunner(weather.AppName, root, nil)
//	answer, err := runner.Run(ctx, weather.UserID, weather.SessionID, "Weather in London?")
//
// Sequential and loop agents compose agents into fixed workflows. The agents
// directory contains the demo agents: weather, todo, plan and execute, CSV
// analytics, research workflow and query classification.
//
// # Commands
//
//   - cmd/simplerag answers questions about a PDF
//   - cmd/subsearch indexes and searches YouTube subtitles
//   - cmd/transcript searches podcast transcripts
//   - cmd/recommend recommends movies
//   - cmd/agents chats with the demo agents
//
// All commands read a TOML configuration file, with API keys taken from the
// environment or a .env file.
package ragagents
