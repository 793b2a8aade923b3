// Package classifier adapts an external chat-completion model into the
// strict sentiment/urgency/category contract the pipeline depends on.
//
// The adapter performs a single model call per invocation; retry policy
// belongs to the workflow engine, which treats every classification failure
// as retryable up to its configured attempt bound.
package classifier
