package speech_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"podscribe/internal/logging"
	"podscribe/internal/media/codec"
	"podscribe/internal/services"
	"podscribe/internal/speech"
)

type fakeRecognizer struct {
	submitID  string
	submitErr error
	statuses  map[string]speech.Status
	statusErr error

	requests []speech.Request
	polled   []string
}

func (f *fakeRecognizer) Submit(_ context.Context, req speech.Request) (string, error) {
	f.requests = append(f.requests, req)
	return f.submitID, f.submitErr
}

func (f *fakeRecognizer) Status(_ context.Context, jobID string) (speech.Status, error) {
	f.polled = append(f.polled, jobID)
	if f.statusErr != nil {
		return speech.Status{}, f.statusErr
	}
	status, ok := f.statuses[jobID]
	if !ok {
		return speech.Status{}, speech.ErrUnknownJob
	}
	return status, nil
}

func newClient(t *testing.T, rec *fakeRecognizer) *speech.Client {
	t.Helper()
	client, err := speech.NewClient(rec, logging.NewNop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

var flac16k = speech.StreamMetadata{Codec: codec.FLAC, SampleRateHz: 16000}

func TestNewClientRequiresRecognizer(t *testing.T) {
	if _, err := speech.NewClient(nil, logging.NewNop()); !errors.Is(err, services.ErrProgramming) {
		t.Fatalf("expected programming error, got %v", err)
	}
}

func TestSubmitBuildsRequest(t *testing.T) {
	rec := &fakeRecognizer{submitID: "job-123"}
	client := newClient(t, rec)

	handle, err := client.Submit(context.Background(), "gs://bucket/episode.flac", flac16k, "en_us")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if handle != "job-123" || !handle.Valid() {
		t.Fatalf("unexpected handle %q", handle)
	}
	if len(rec.requests) != 1 {
		t.Fatalf("expected one request, got %d", len(rec.requests))
	}
	req := rec.requests[0]
	if req.AudioURI != "gs://bucket/episode.flac" || req.Encoding != codec.FLAC || req.SampleRateHz != 16000 {
		t.Fatalf("unexpected request %+v", req)
	}
	if req.ChannelCount != 1 || req.LanguageCode != "en-US" {
		t.Fatalf("expected mono en-US request, got %+v", req)
	}
	if req.Options.EnableWordConfidence || !req.Options.EnableAutomaticPunctuation || !req.Options.UseEnhancedModel {
		t.Fatalf("unexpected options %+v", req.Options)
	}
}

func TestSubmitRejectsBadHandles(t *testing.T) {
	for _, id := range []string{"", "job 123", "job\n"} {
		rec := &fakeRecognizer{submitID: id}
		_, err := newClient(t, rec).Submit(context.Background(), "gs://b/a.flac", flac16k, "en-US")
		if !errors.Is(err, services.ErrProgramming) {
			t.Fatalf("id %q: expected programming error, got %v", id, err)
		}
	}
}

func TestSubmitTransportFailureIsProgramming(t *testing.T) {
	cause := errors.New("connection refused")
	rec := &fakeRecognizer{submitErr: cause}
	_, err := newClient(t, rec).Submit(context.Background(), "gs://b/a.flac", flac16k, "en-US")
	if !errors.Is(err, services.ErrProgramming) || !errors.Is(err, cause) {
		t.Fatalf("expected programming error wrapping cause, got %v", err)
	}
}

func TestSubmitCanceledContextPassesThrough(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := &fakeRecognizer{submitErr: context.Canceled}
	_, err := newClient(t, rec).Submit(ctx, "gs://b/a.flac", flac16k, "en-US")
	if !errors.Is(err, context.Canceled) || services.KindOf(err) != services.KindUnknown {
		t.Fatalf("expected bare cancellation, got %v", err)
	}
}

func TestSubmitInvalidRequestNeverReachesService(t *testing.T) {
	cases := map[string]struct {
		uri    string
		stream speech.StreamMetadata
		lang   string
	}{
		"empty uri":        {uri: " ", stream: flac16k, lang: "en-US"},
		"unknown codec":    {uri: "gs://b/a", stream: speech.StreamMetadata{Codec: codec.Unknown, SampleRateHz: 16000}, lang: "en-US"},
		"zero rate":        {uri: "gs://b/a", stream: speech.StreamMetadata{Codec: codec.FLAC}, lang: "en-US"},
		"invalid language": {uri: "gs://b/a", stream: flac16k, lang: "not a tag"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec := &fakeRecognizer{submitID: "job-1"}
			_, err := newClient(t, rec).Submit(context.Background(), tc.uri, tc.stream, tc.lang)
			if !errors.Is(err, services.ErrProgramming) {
				t.Fatalf("expected programming error, got %v", err)
			}
			if len(rec.requests) != 0 {
				t.Fatal("request should not be sent")
			}
		})
	}
}

func TestPollNotDoneReturnsNil(t *testing.T) {
	rec := &fakeRecognizer{statuses: map[string]speech.Status{"job-123": {Done: false}}}
	got, err := newClient(t, rec).Poll(context.Background(), "job-123")
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil transcript, got %+v", got)
	}
}

func TestPollDoneReturnsTrimmedTranscript(t *testing.T) {
	rec := &fakeRecognizer{statuses: map[string]speech.Status{"job-123": {
		Done: true,
		Segments: []speech.Segment{{
			Alternatives: []speech.Alternative{{Text: " hello ", Confidence: 0.9}},
			LanguageCode: "en-US",
		}},
	}}}
	got, err := newClient(t, rec).Poll(context.Background(), "job-123")
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if got == nil || len(got.Utterances) != 1 {
		t.Fatalf("expected one utterance, got %+v", got)
	}
	u := got.Utterances[0]
	if u.LanguageCode != "en-US" || len(u.Alternatives) != 1 {
		t.Fatalf("unexpected utterance %+v", u)
	}
	if u.Alternatives[0].Text != "hello" || u.Alternatives[0].Confidence != 0.9 {
		t.Fatalf("unexpected alternative %+v", u.Alternatives[0])
	}
}

func TestPollKeepsSegmentsAndAlternativeOrder(t *testing.T) {
	segments := []speech.Segment{
		{LanguageCode: "en-us", Alternatives: []speech.Alternative{{Text: "b\t", Confidence: 0.3}, {Text: " a", Confidence: 0.6}}},
		{LanguageCode: "en-us"},
		{LanguageCode: "es-us", Alternatives: []speech.Alternative{{Text: "hola", Confidence: 1}}},
	}
	rec := &fakeRecognizer{statuses: map[string]speech.Status{"op-1": {Done: true, Segments: segments}}}
	got, err := newClient(t, rec).Poll(context.Background(), "op-1")
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if len(got.Utterances) != len(segments) {
		t.Fatalf("utterances = %d, want %d", len(got.Utterances), len(segments))
	}
	first := got.Utterances[0].Alternatives
	if first[0].Text != "b" || first[1].Text != "a" {
		t.Fatalf("alternatives reordered or untrimmed: %+v", first)
	}
	if got.Utterances[2].LanguageCode != "es-us" {
		t.Fatalf("language not carried through: %q", got.Utterances[2].LanguageCode)
	}
}

func TestPollRemoteFailure(t *testing.T) {
	cause := errors.New("audio could not be decoded")
	rec := &fakeRecognizer{statuses: map[string]speech.Status{"job-9": {Done: true, Failure: cause}}}
	_, err := newClient(t, rec).Poll(context.Background(), "job-9")
	if !errors.Is(err, services.ErrProgramming) || !errors.Is(err, speech.ErrJobFailed) || !errors.Is(err, cause) {
		t.Fatalf("expected programming job failure, got %v", err)
	}
}

func TestPollUnknownJob(t *testing.T) {
	rec := &fakeRecognizer{statuses: map[string]speech.Status{}}
	_, err := newClient(t, rec).Poll(context.Background(), "missing")
	if !errors.Is(err, services.ErrProgramming) || !errors.Is(err, speech.ErrUnknownJob) {
		t.Fatalf("expected unknown job, got %v", err)
	}
}

func TestPollMalformedHandle(t *testing.T) {
	rec := &fakeRecognizer{}
	for _, handle := range []speech.JobHandle{"", "two words"} {
		_, err := newClient(t, rec).Poll(context.Background(), handle)
		if !errors.Is(err, services.ErrProgramming) {
			t.Fatalf("handle %q: expected programming error, got %v", handle, err)
		}
	}
	if len(rec.polled) != 0 {
		t.Fatal("malformed handles must not be sent")
	}
}

func TestPollTransportFailureIsProgramming(t *testing.T) {
	rec := &fakeRecognizer{statusErr: errors.New("deadline exhausted")}
	_, err := newClient(t, rec).Poll(context.Background(), "job-1")
	if !errors.Is(err, services.ErrProgramming) {
		t.Fatalf("expected programming error, got %v", err)
	}
}

func TestParseRejectsNonFiniteConfidence(t *testing.T) {
	for _, confidence := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := speech.Parse([]speech.Segment{{Alternatives: []speech.Alternative{{Text: "x", Confidence: confidence}}}})
		if !errors.Is(err, speech.ErrMalformedResult) {
			t.Fatalf("confidence %v: expected malformed result, got %v", confidence, err)
		}
	}
}

func TestParseKeepsOutOfRangeConfidence(t *testing.T) {
	for _, confidence := range []float64{-0.1, 1.0000001, 1.5} {
		got, err := speech.Parse([]speech.Segment{{Alternatives: []speech.Alternative{{Text: "x", Confidence: confidence}}}})
		if err != nil {
			t.Fatalf("confidence %v: Parse: %v", confidence, err)
		}
		if c := got.Utterances[0].Alternatives[0].Confidence; c != confidence {
			t.Fatalf("confidence = %v, want %v", c, confidence)
		}
	}
}

func TestJobHandleValid(t *testing.T) {
	cases := map[speech.JobHandle]bool{
		"":                false,
		"1234567890":      true,
		"projects/p/op/1": true,
		" leading":        false,
		"tab\tinside":     false,
	}
	for handle, want := range cases {
		if got := handle.Valid(); got != want {
			t.Fatalf("Valid(%q) = %v, want %v", handle, got, want)
		}
	}
}
