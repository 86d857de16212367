package firmware

import (
	"context"

	"github.com/sampottinger/ljswitchboard/internal/metrics"
	"github.com/sampottinger/ljswitchboard/internal/util/logging"
)

// flashOpParams bundles the inputs to flashOp.
type flashOpParams struct {
	stage        string // label used in FlashIoError and metrics
	region       string
	startAddress uint32 // flash address space
	length       uint32 // length, in 32-bit words
	blockSize    uint32 // words per chunk
	pointerReg   uint32
	dataReg      uint32
	direction    Direction
	key          *uint32 // permission key register value, if any
	keyReg       uint32
	data         []byte // required for DirectionWrite; populated in-place for DirectionRead

	progress *rangeSink // reports fraction complete as chunks finish
}

// flashOp issues a sequence of compound register transactions against one
// flash region, chunked to blockSize words per transaction. Read and write
// share this single code path: they differ only in direction and whether a
// key/payload is supplied, which keeps chunking and error handling
// identical for both. Chunks are strictly sequential: the next chunk's
// transaction is only issued once the previous one has completed.
func flashOp(ctx context.Context, device Transport, p flashOpParams) error {
	if p.blockSize == 0 {
		return &FlashIoError{Stage: p.stage, Chunk: 0, Cause: errZeroBlockSize}
	}
	if p.direction == DirectionWrite {
		if len(p.data)%4 != 0 {
			return &FlashIoError{Stage: p.stage, Chunk: 0, Cause: errNotWordAligned}
		}
		if uint32(len(p.data))/4 < p.length {
			return &FlashIoError{Stage: p.stage, Chunk: 0, Cause: errBufferTooShort}
		}
	} else if p.data == nil {
		p.data = make([]byte, p.length*4)
	}

	log := logging.WithGroup("flashio").WithField("stage", p.stage).WithField("region", p.region)

	numFullChunks := p.length / p.blockSize
	remainder := p.length % p.blockSize

	var wordsDone uint32
	chunkIndex := 0

	doChunk := func(chunkWords uint32) error {
		select {
		case <-ctx.Done():
			return ErrCancelled
		default:
		}

		pointer := p.startAddress + wordsDone*4
		byteOffset := wordsDone * 4

		ops := make([]RegisterOp, 0, 3+chunkWords)
		ops = append(ops, RegisterOp{Address: p.pointerReg, Direction: DirectionWrite, Value: pointer})
		if p.key != nil {
			ops = append(ops, RegisterOp{Address: p.keyReg, Direction: DirectionWrite, Value: *p.key})
		}

		if p.direction == DirectionWrite {
			for i := uint32(0); i < chunkWords; i++ {
				off := byteOffset + i*4
				value := uint32(p.data[off])<<24 | uint32(p.data[off+1])<<16 | uint32(p.data[off+2])<<8 | uint32(p.data[off+3])
				ops = append(ops, RegisterOp{Address: p.dataReg, Direction: DirectionWrite, Value: value})
			}
		} else {
			for i := uint32(0); i < chunkWords; i++ {
				ops = append(ops, RegisterOp{Address: p.dataReg, Direction: DirectionRead})
			}
		}

		results, err := device.RWMany(ctx, ops)
		if err != nil {
			return &FlashIoError{Stage: p.stage, Chunk: chunkIndex, Cause: err}
		}

		if p.direction == DirectionRead {
			if len(results) != int(chunkWords) {
				return &FlashIoError{Stage: p.stage, Chunk: chunkIndex, Cause: errShortRead}
			}
			for i := uint32(0); i < chunkWords; i++ {
				off := byteOffset + i*4
				v := results[i]
				p.data[off] = byte(v >> 24)
				p.data[off+1] = byte(v >> 16)
				p.data[off+2] = byte(v >> 8)
				p.data[off+3] = byte(v)
			}
		}

		wordsDone += chunkWords
		metrics.FlashChunksProcessed.WithLabelValues(p.region).Inc()
		if p.progress != nil {
			p.progress.reportFraction(float64(wordsDone) / float64(p.length))
		}
		log.WithField("chunk", chunkIndex).WithField("wordsDone", wordsDone).Debug("flash chunk complete")
		chunkIndex++
		return nil
	}

	for i := uint32(0); i < numFullChunks; i++ {
		if err := doChunk(p.blockSize); err != nil {
			return err
		}
	}
	if remainder != 0 {
		if err := doChunk(remainder); err != nil {
			return err
		}
	}

	return nil
}
