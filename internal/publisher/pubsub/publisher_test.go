package pubsub

import (
	"context"
	"encoding/json"
	"testing"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

type notice struct {
	Chamber string `json:"chamber"`
	Number  int    `json:"number"`
}

func (n notice) Attributes() map[string]string {
	return map[string]string{"chamber": n.Chamber}
}

func newFakeServer(t *testing.T) (*pstest.Server, []option.ClientOption) {
	t.Helper()
	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return srv, []option.ClientOption{option.WithGRPCConn(conn)}
}

func TestPublisherPublishesJSON(t *testing.T) {
	t.Parallel()

	srv, opts := newFakeServer(t)
	ctx := context.Background()

	client, err := pubsub.NewClient(ctx, "proj", opts...)
	require.NoError(t, err)
	defer client.Close()
	_, err = client.CreateTopic(ctx, "rollcalls")
	require.NoError(t, err)

	pub, err := Open(ctx, "proj", "rollcalls", opts...)
	require.NoError(t, err)

	id, err := pub.Publish(ctx, "rollcalls", notice{Chamber: "senate", Number: 3})
	require.NoError(t, err)
	require.NotEmpty(t, id)
	require.NoError(t, pub.Close())

	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	var got notice
	require.NoError(t, json.Unmarshal(msgs[0].Data, &got))
	require.Equal(t, notice{Chamber: "senate", Number: 3}, got)
	require.Equal(t, "senate", msgs[0].Attributes["chamber"])
}

func TestOpenMissingTopic(t *testing.T) {
	t.Parallel()

	_, opts := newFakeServer(t)
	_, err := Open(context.Background(), "proj", "absent", opts...)
	require.ErrorContains(t, err, "does not exist")

	_, err = Open(context.Background(), "", "absent", opts...)
	require.Error(t, err)
}

func TestPublishUnconfigured(t *testing.T) {
	t.Parallel()

	var pub *Publisher
	_, err := pub.Publish(context.Background(), "t", "x")
	require.ErrorContains(t, err, "not configured")
	require.NoError(t, pub.Close())
}
