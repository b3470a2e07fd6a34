package store

// CurrentRecord is the response window the event loop recomputes after
// every stdin append (§4.2.5): the bytes to serve a waiting 'C' client.
type CurrentRecord struct {
	Begin, End DataPointer
	Have       bool
}

// completeEnd returns the position just past the last fully received
// record, discarding any trailing partial record (§4.2.5: "discard
// trailing partial record"). Fixed-length mode only; separator mode's
// equivalent trim is folded into recordEnd (n=0 finds exactly the
// last separator, which already excludes any trailing partial bytes).
func (q *BufferQueue) completeEnd() DataPointer {
	if q.tail == nil {
		return DataPointer{}
	}
	trailing := int(q.byteCount % uint64(q.fixedL))
	end, ok := q.tailEnd().back(trailing)
	if !ok {
		return DataPointer{}
	}
	return end
}

// Locate implements the record locator of §4.2.5 for the reverse
// window (rbegin, rend): rbegin=0,rend=1 is "just the latest record".
// Have is false if fewer than rend complete records exist yet.
//
// In separator mode, end and begin are landed by two distinct rules:
// end sits directly on the separator terminating the target record
// (exclusive bound, since the separator is never record content),
// while begin sits one byte past the separator preceding the window's
// oldest record (or the queue head, if the window reaches the oldest
// record the queue still holds). Conflating these two landing points
// into one shared operation is what previously made every separator-
// mode response come out as a single boundary byte.
func (q *BufferQueue) Locate(rbegin, rend uint64) CurrentRecord {
	if q.recordCount < rend {
		return CurrentRecord{}
	}

	if q.mode == modeFixedLength {
		ce := q.completeEnd()
		end, ok := q.fixedBack(ce, int(rbegin))
		if !ok {
			return CurrentRecord{}
		}
		begin, ok := q.fixedBack(end, int(rend-rbegin))
		if !ok {
			return CurrentRecord{}
		}
		return CurrentRecord{Begin: begin, End: end, Have: true}
	}

	end, ok := q.recordEnd(q.tailEnd(), int(rbegin))
	if !ok {
		return CurrentRecord{}
	}
	begin := q.recordBegin(q.tailEnd(), int(rend)-1)
	return CurrentRecord{Begin: begin, End: end, Have: true}
}

// Bytes copies the payload described by r out of the queue's buffers,
// in order, into one contiguous slice ready for response framing.
func (r CurrentRecord) Bytes() []byte {
	if !r.Have {
		return nil
	}
	var out []byte
	b, off := r.Begin.Buf, r.Begin.Off
	for b != nil {
		stop := b.Len()
		if b == r.End.Buf {
			stop = r.End.Off
		}
		if off < stop {
			out = append(out, b.data[off:stop]...)
		}
		if b == r.End.Buf {
			break
		}
		b = b.next
		off = 0
	}
	return out
}
