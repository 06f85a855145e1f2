// Package checkpoint derives resume state from an output sink. Nothing is
// persisted besides the sink itself; every run recomputes the state from
// the file's current contents.
package checkpoint
