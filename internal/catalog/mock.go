package catalog

import (
	"context"
	"fmt"
	"iter"
	"sync"

	"github.com/cesargomez89/tubearchive/internal/constants"
	"github.com/cesargomez89/tubearchive/internal/domain"
)

// MockProvider is an in-memory Provider for tests and local dry runs.
type MockProvider struct {
	mu          sync.Mutex
	channel     *domain.ChannelInfo
	videos      []domain.VideoInfo
	comments    map[string][]domain.CommentInfo
	commentErrs map[string]error
	channelErr  error
	listErr     error
	commentCall map[string]int
}

func NewMockProvider(channel domain.ChannelInfo, videos ...domain.VideoInfo) *MockProvider {
	return &MockProvider{
		channel:     &channel,
		videos:      videos,
		comments:    make(map[string][]domain.CommentInfo),
		commentErrs: make(map[string]error),
		commentCall: make(map[string]int),
	}
}

func (p *MockProvider) SetVideos(videos ...domain.VideoInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.videos = videos
}

func (p *MockProvider) SetComments(videoID string, comments ...domain.CommentInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.comments[videoID] = comments
}

func (p *MockProvider) SetCommentError(videoID string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.commentErrs[videoID] = err
}

func (p *MockProvider) SetChannelError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.channelErr = err
}

func (p *MockProvider) SetListError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listErr = err
}

// CommentCalls reports how many times comments of videoID were fetched.
func (p *MockProvider) CommentCalls(videoID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.commentCall[videoID]
}

func (p *MockProvider) FetchChannel(ctx context.Context, channelID string) (*domain.ChannelInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channelErr != nil {
		return nil, p.channelErr
	}
	if p.channel == nil || p.channel.ID != channelID {
		return nil, fmt.Errorf("%w: %s", ErrChannelNotFound, channelID)
	}
	ch := *p.channel
	return &ch, nil
}

func (p *MockProvider) ListVideoIDs(ctx context.Context, uploadsPlaylistID string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		p.mu.Lock()
		listErr := p.listErr
		ids := make([]string, len(p.videos))
		for i, v := range p.videos {
			ids[i] = v.ID
		}
		p.mu.Unlock()

		if listErr != nil {
			yield("", listErr)
			return
		}
		for _, id := range ids {
			if !yield(id, nil) {
				return
			}
		}
	}
}

func (p *MockProvider) FetchVideoDetails(ctx context.Context, ids []string) ([]domain.VideoInfo, error) {
	if len(ids) > constants.YouTubeDetailsBatchSize {
		return nil, ErrBatchTooLarge
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	byID := make(map[string]domain.VideoInfo, len(p.videos))
	for _, v := range p.videos {
		byID[v.ID] = v
	}
	out := make([]domain.VideoInfo, 0, len(ids))
	for _, id := range ids {
		if v, ok := byID[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func (p *MockProvider) ListVideos(ctx context.Context, uploadsPlaylistID string) ([]domain.VideoInfo, error) {
	var ids []string
	for id, err := range p.ListVideoIDs(ctx, uploadsPlaylistID) {
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return fetchInBatches(ctx, ids, 0, p.FetchVideoDetails)
}

func (p *MockProvider) FetchComments(ctx context.Context, videoID string) ([]domain.CommentInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.commentCall[videoID]++
	if err := p.commentErrs[videoID]; err != nil {
		return nil, err
	}
	comments := append([]domain.CommentInfo{}, p.comments[videoID]...)
	for i := range comments {
		comments[i].VideoID = videoID
	}
	return comments, nil
}
