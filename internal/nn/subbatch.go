package nn

// subBatchPlan partitions a batch under a memory budget expressed in
// samples. maxSamples == 0 means unbounded: the whole batch is one
// sub-batch. The packed representation is sized per sub-batch, so the plan
// bounds its peak memory at maxSamples worth of packed patches.
func subBatchPlan(batch, maxSamples int) (subSize, numSub int) {
	if maxSamples == 0 || maxSamples > batch {
		maxSamples = batch
	}
	subSize = maxSamples
	if subSize == 0 {
		return 0, 0
	}
	numSub = (batch + subSize - 1) / subSize
	return subSize, numSub
}

// forEachSubBatch invokes fn for each chunk [start, start+count) of the
// batch, in increasing order. The last chunk may be short. Iteration is
// strictly sequential: each chunk's scratch memory is reused before the
// next begins.
func forEachSubBatch(batch, subSize int, fn func(start, count int)) {
	for start := 0; start < batch; start += subSize {
		count := subSize
		if start+count > batch {
			count = batch - start
		}
		fn(start, count)
	}
}
