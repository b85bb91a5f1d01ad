package sim

import (
	"runtime"
	"sync"
)

// parallelThreshold is the minimum element count to use parallel processing.
// Below this, single-threaded is faster due to goroutine overhead.
const parallelThreshold = 64

// workChunk represents a range of elements for a worker to process.
type workChunk struct {
	start, end int
}

// workerPool runs the data-parallel phases of a step. Workers are persistent
// goroutines; forEach dispatches chunks and collects completions, so every
// call is a full barrier: no worker touches the next phase until all chunks
// of the current one are done.
type workerPool struct {
	numWorkers int

	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running

	// body is the current phase function. Only mutated by forEach while no
	// chunks are in flight.
	body func(start, end int)
}

func newWorkerPool() *workerPool {
	return &workerPool{numWorkers: runtime.GOMAXPROCS(0)}
}

// start launches persistent worker goroutines.
func (p *workerPool) start() {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// stop signals all workers to exit and waits for them.
func (p *workerPool) stop() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *workerPool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			p.body(chunk.start, chunk.end)
			p.doneChan <- struct{}{}
		}
	}
}

// forEach applies fn to [0, n) in chunks and returns once every chunk has
// completed. Small ranges run inline on the calling goroutine.
func (p *workerPool) forEach(n int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if n < parallelThreshold {
		fn(0, n)
		return
	}

	if !p.running {
		p.start()
	}
	p.body = fn

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers
	chunksDispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}

		p.workChan <- workChunk{start: start, end: end}
		chunksDispatched++
	}

	for i := 0; i < chunksDispatched; i++ {
		<-p.doneChan
	}
}
