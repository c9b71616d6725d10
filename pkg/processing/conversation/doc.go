// Package conversation bounds the conversation history forwarded to the model.
//
// An assessment conversation grows without limit in the browser, but the
// model only accepts a fixed context window. TrimConversationHistory keeps
// the most recent messages that fit a token budget and drops older ones.
//
// # Rules
//
//   - Lists of two or fewer messages are returned unchanged.
//   - The result is always a contiguous suffix of the input, in the input's
//     order, and always contains the most recent message.
//   - At least two messages are kept, even when those two alone exceed the
//     budget. Message content is never truncated; only set membership changes.
//
// Recency wins over completeness: the walk stops at the first message that
// does not fit, so a small old message is never kept after a larger, newer
// one was dropped.
package conversation
