package compress

import (
	"context"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mediapress/mediapress/internal/storage"
	"github.com/mediapress/mediapress/internal/video"
)

// mockProber implements Prober for testing.
type mockProber struct {
	mock.Mock
}

func (m *mockProber) Probe(ctx context.Context, path string) (*video.SourceInfo, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*video.SourceInfo), args.Error(1)
}

// mockTransferrer implements Transferrer for testing.
type mockTransferrer struct {
	mock.Mock
}

func (m *mockTransferrer) Transfer(ctx context.Context, src, dst string, target video.Target, mode video.Mode) error {
	args := m.Called(ctx, src, dst, target, mode)
	return args.Error(0)
}

type testEngine struct {
	engine      *Engine
	store       *storage.LocalStore
	prober      *mockProber
	transferrer *mockTransferrer
}

func newTestEngine(t *testing.T) *testEngine {
	t.Helper()

	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	prober := &mockProber{}
	transferrer := &mockTransferrer{}
	return &testEngine{
		engine:      New(store, prober, transferrer, nil),
		store:       store,
		prober:      prober,
		transferrer: transferrer,
	}
}

// await receives the single outcome with a guard against a hung worker.
func await(t *testing.T, ch <-chan Outcome) Outcome {
	t.Helper()
	select {
	case out := <-ch:
		return out
	case <-time.After(30 * time.Second):
		t.Fatal("no outcome delivered")
		return Outcome{}
	}
}

// writeTestJPEG creates a w x h JPEG at path.
func writeTestJPEG(t *testing.T, path string, w, h int) {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i-3] = uint8(i % 256)
		img.Pix[i] = 0xff
	}

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, jpeg.Encode(f, img, &jpeg.Options{Quality: 95}))
}

func decodeDims(t *testing.T, path string) (int, int) {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := jpeg.DecodeConfig(f)
	require.NoError(t, err)
	return cfg.Width, cfg.Height
}

func intPtr(n int) *int { return &n }

func TestCompressImage_InvalidArguments(t *testing.T) {
	te := newTestEngine(t)

	// A path that, if accessed, would fail with a not-found error. The
	// outcome code proves validation runs before any filesystem access.
	path := "/no/such/directory/photo.jpg"

	tests := []struct {
		name string
		cfg  ImageConfig
	}{
		{"quality above range", ImageConfig{Quality: 101}},
		{"quality below range", ImageConfig{Quality: -1}},
		{"zero max width", ImageConfig{Quality: 80, MaxWidth: intPtr(0), MaxHeight: intPtr(100)}},
		{"negative max height", ImageConfig{Quality: 80, MaxWidth: intPtr(100), MaxHeight: intPtr(-5)}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out := await(t, te.engine.CompressImage(path, tc.cfg))
			require.False(t, out.Succeeded())
			assert.Equal(t, ErrorInvalidArgument, out.Err.Code)
		})
	}
}

func TestCompress_EmptySourcePath(t *testing.T) {
	te := newTestEngine(t)

	out := await(t, te.engine.CompressImage("", ImageConfig{Quality: 80}))
	require.False(t, out.Succeeded())
	assert.Equal(t, ErrorInvalidArgument, out.Err.Code)
}

func TestCompress_MismatchedConfig(t *testing.T) {
	te := newTestEngine(t)

	out := await(t, te.engine.Compress(Request{Kind: KindImage, SourcePath: "x.jpg"}))
	require.False(t, out.Succeeded())
	assert.Equal(t, ErrorInvalidArgument, out.Err.Code)
}

func TestCompressImage_MissingFile(t *testing.T) {
	te := newTestEngine(t)

	out := await(t, te.engine.CompressImage("/tmp/missing-mediapress-test.jpg", ImageConfig{Quality: 80}))
	require.False(t, out.Succeeded())
	assert.Equal(t, ErrorFileNotFound, out.Err.Code)
}

func TestCompressImage_UndecodableSource(t *testing.T) {
	te := newTestEngine(t)

	src := filepath.Join(t.TempDir(), "fake.jpg")
	require.NoError(t, os.WriteFile(src, []byte("not image bytes"), 0600))

	out := await(t, te.engine.CompressImage(src, ImageConfig{Quality: 80}))
	require.False(t, out.Succeeded())
	assert.Equal(t, ErrorCompression, out.Err.Code)
}

func TestCompressImage_RoundTripFullQuality(t *testing.T) {
	te := newTestEngine(t)

	src := filepath.Join(t.TempDir(), "source.jpg")
	writeTestJPEG(t, src, 120, 80)

	out := await(t, te.engine.CompressImage(src, ImageConfig{Quality: 100}))
	require.True(t, out.Succeeded(), "outcome error: %v", out.Err)

	// Quality-only compression never changes pixel dimensions.
	w, h := decodeDims(t, out.OutputPath)
	assert.Equal(t, 120, w)
	assert.Equal(t, 80, h)

	name := filepath.Base(out.OutputPath)
	assert.True(t, strings.HasPrefix(name, "compressed_"))
	assert.True(t, strings.HasSuffix(name, ".jpg"))
	assert.True(t, filepath.IsAbs(out.OutputPath))
	assert.Empty(t, out.ArchiveURL)
}

func TestCompressImage_Resize(t *testing.T) {
	te := newTestEngine(t)
	dir := t.TempDir()

	src := filepath.Join(dir, "large.jpg")
	writeTestJPEG(t, src, 200, 100)

	t.Run("downscales to fit both bounds", func(t *testing.T) {
		cfg := ImageConfig{Quality: 80, MaxWidth: intPtr(100), MaxHeight: intPtr(100)}
		out := await(t, te.engine.CompressImage(src, cfg))
		require.True(t, out.Succeeded(), "outcome error: %v", out.Err)

		w, h := decodeDims(t, out.OutputPath)
		assert.Equal(t, 100, w)
		assert.Equal(t, 50, h)
	})

	t.Run("source already fitting is untouched", func(t *testing.T) {
		cfg := ImageConfig{Quality: 80, MaxWidth: intPtr(400), MaxHeight: intPtr(400)}
		out := await(t, te.engine.CompressImage(src, cfg))
		require.True(t, out.Succeeded(), "outcome error: %v", out.Err)

		w, h := decodeDims(t, out.OutputPath)
		assert.Equal(t, 200, w)
		assert.Equal(t, 100, h)
	})

	t.Run("single bound skips resizing", func(t *testing.T) {
		cfg := ImageConfig{Quality: 80, MaxWidth: intPtr(50)}
		out := await(t, te.engine.CompressImage(src, cfg))
		require.True(t, out.Succeeded(), "outcome error: %v", out.Err)

		w, h := decodeDims(t, out.OutputPath)
		assert.Equal(t, 200, w)
		assert.Equal(t, 100, h)
	})
}

func TestCompressVideo_InvalidPreset(t *testing.T) {
	te := newTestEngine(t)

	out := await(t, te.engine.CompressVideo("/no/such/clip.mp4", VideoConfig{Preset: "ultra"}))
	require.False(t, out.Succeeded())
	assert.Equal(t, ErrorInvalidArgument, out.Err.Code)
	te.prober.AssertNotCalled(t, "Probe", mock.Anything, mock.Anything)
}

func TestCompressVideo_MissingFile(t *testing.T) {
	te := newTestEngine(t)

	out := await(t, te.engine.CompressVideo("/tmp/missing-mediapress-test.mp4", VideoConfig{Preset: video.PresetMedium}))
	require.False(t, out.Succeeded())
	assert.Equal(t, ErrorFileNotFound, out.Err.Code)
	te.prober.AssertNotCalled(t, "Probe", mock.Anything, mock.Anything)
}

func TestCompressVideo_NoVideoStream(t *testing.T) {
	te := newTestEngine(t)

	src := filepath.Join(t.TempDir(), "audio-only.mp4")
	require.NoError(t, os.WriteFile(src, []byte("stub"), 0600))

	te.prober.On("Probe", mock.Anything, src).Return(nil, video.ErrNoVideoStream)

	out := await(t, te.engine.CompressVideo(src, VideoConfig{Preset: video.PresetMedium}))
	require.False(t, out.Succeeded())
	assert.Equal(t, ErrorCompression, out.Err.Code)
	te.transferrer.AssertNotCalled(t, "Transfer", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCompressVideo_TranscodeDerivesTarget(t *testing.T) {
	te := newTestEngine(t)

	src := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(src, []byte("stub"), 0600))

	te.prober.On("Probe", mock.Anything, src).
		Return(&video.SourceInfo{Width: 3840, Height: 2160, HasAudio: true}, nil)

	wantTarget := video.Target{Bitrate: 1_000_000, Width: 1280, Height: 720, Scaled: true, Audio: true}
	te.transferrer.On("Transfer", mock.Anything, src, mock.Anything, wantTarget, video.ModeTranscode).
		Run(func(args mock.Arguments) {
			dst := args.String(2)
			require.NoError(t, os.WriteFile(dst, []byte("encoded"), 0600))
		}).
		Return(nil)

	out := await(t, te.engine.CompressVideo(src, VideoConfig{Preset: video.PresetMedium}))
	require.True(t, out.Succeeded(), "outcome error: %v", out.Err)
	assert.True(t, strings.HasSuffix(out.OutputPath, ".mp4"))

	te.prober.AssertExpectations(t)
	te.transferrer.AssertExpectations(t)
}

func TestCompressVideo_RemuxMode(t *testing.T) {
	te := newTestEngine(t)

	src := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(src, []byte("stub"), 0600))

	te.prober.On("Probe", mock.Anything, src).
		Return(&video.SourceInfo{Width: 1280, Height: 720, HasAudio: true}, nil)
	te.transferrer.On("Transfer", mock.Anything, src, mock.Anything, mock.Anything, video.ModeRemux).
		Run(func(args mock.Arguments) {
			require.NoError(t, os.WriteFile(args.String(2), []byte("copied"), 0600))
		}).
		Return(nil)

	out := await(t, te.engine.CompressVideo(src, VideoConfig{Preset: video.PresetLow, Mode: video.ModeRemux}))
	require.True(t, out.Succeeded(), "outcome error: %v", out.Err)
	te.transferrer.AssertExpectations(t)
}

func TestCompressVideo_NullResult(t *testing.T) {
	te := newTestEngine(t)

	src := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(src, []byte("stub"), 0600))

	te.prober.On("Probe", mock.Anything, src).
		Return(&video.SourceInfo{Width: 1280, Height: 720}, nil)
	// Transfer reports success but writes nothing.
	te.transferrer.On("Transfer", mock.Anything, src, mock.Anything, mock.Anything, video.ModeTranscode).
		Return(nil)

	out := await(t, te.engine.CompressVideo(src, VideoConfig{Preset: video.PresetHigh}))
	require.False(t, out.Succeeded())
	assert.Equal(t, ErrorNullResult, out.Err.Code)
}

func TestCompressVideo_TransferFailure(t *testing.T) {
	te := newTestEngine(t)

	src := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(src, []byte("stub"), 0600))

	te.prober.On("Probe", mock.Anything, src).
		Return(&video.SourceInfo{Width: 1280, Height: 720}, nil)
	te.transferrer.On("Transfer", mock.Anything, src, mock.Anything, mock.Anything, video.ModeTranscode).
		Return(&video.FFmpegError{Stderr: "encoder exploded"})

	out := await(t, te.engine.CompressVideo(src, VideoConfig{Preset: video.PresetHigh}))
	require.False(t, out.Succeeded())
	assert.Equal(t, ErrorCompression, out.Err.Code)
	assert.Equal(t, "encoder exploded", out.Err.Details)
}

func TestCompress_ExactlyOneOutcome(t *testing.T) {
	te := newTestEngine(t)

	ch := te.engine.CompressImage("", ImageConfig{Quality: 80})
	<-ch

	select {
	case out, ok := <-ch:
		if ok {
			t.Fatalf("unexpected second outcome: %+v", out)
		}
	case <-time.After(50 * time.Millisecond):
		// no second delivery
	}
}
