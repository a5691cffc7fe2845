// Package agent is a small tool-calling agent runtime on top of langchaingo
// models.
//
// An LLMAgent sends its instruction, the session history and the user
// message to an llms.Model together with the declarations of its tools. Tool
// calls returned by the model are executed and their results fed back until
// the model answers with plain text. The model/tool loop runs on a
// graph.StateGraph.
//
// Agents compose: sub-agents are reachable through a transfer_to_agent tool,
// an AgentTool exposes an agent as a tool, and SequentialAgent and LoopAgent
// run agents in order. A Runner ties an agent to sessions whose State is
// shared by every agent and tool of a turn.
package agent
