package objectstore_test

import (
	"context"
	"fmt"
	"testing"

	"cloud.google.com/go/storage"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/nikolayk812/podstore/internal/domain"
	"github.com/nikolayk812/podstore/internal/objectstore"
	"github.com/nikolayk812/podstore/internal/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const testBucket = "podstore-carts"

type gcsSuite struct {
	suite.Suite

	container testcontainers.Container
	client    *storage.Client
	store     *objectstore.GCS
}

// entry point to run the tests in the suite
func TestGCSSuite(t *testing.T) {
	suite.Run(t, new(gcsSuite))
}

// before all tests in the suite
func (suite *gcsSuite) SetupSuite() {
	ctx := suite.T().Context()

	container, hostPort, err := startFakeGCS(ctx)
	suite.Require().NoError(err)
	suite.container = container

	suite.T().Setenv("STORAGE_EMULATOR_HOST", hostPort)

	suite.client, err = storage.NewClient(ctx)
	suite.Require().NoError(err)

	err = suite.client.Bucket(testBucket).Create(ctx, "podstore-test", nil)
	suite.Require().NoError(err)

	suite.store, err = objectstore.NewGCS(suite.client, testBucket)
	suite.Require().NoError(err)
}

// after all tests in the suite
func (suite *gcsSuite) TearDownSuite() {
	if suite.client != nil {
		suite.NoError(suite.client.Close())
	}
	if suite.container != nil {
		suite.NoError(testcontainers.TerminateContainer(suite.container))
	}
}

func (suite *gcsSuite) TestUploadDownload() {
	t := suite.T()
	ctx := t.Context()
	path := randomPath()

	exists, err := suite.store.Exists(ctx, path)
	require.NoError(t, err)
	assert.False(t, exists)

	_, _, err = suite.store.Download(ctx, path)
	require.ErrorIs(t, err, domain.ErrNotFound)

	gen, err := suite.store.Upload(ctx, path, []byte(`{"items":[]}`), "application/json", port.IfGeneration(0))
	require.NoError(t, err)
	assert.NotZero(t, gen)

	data, readGen, err := suite.store.Download(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, gen, readGen)
	assert.JSONEq(t, `{"items":[]}`, string(data))

	exists, err = suite.store.Exists(ctx, path)
	require.NoError(t, err)
	assert.True(t, exists)
}

func (suite *gcsSuite) TestUploadConflict() {
	t := suite.T()
	ctx := t.Context()
	path := randomPath()

	gen, err := suite.store.Upload(ctx, path, []byte(`{"items":[]}`), "application/json", port.IfGeneration(0))
	require.NoError(t, err)

	_, err = suite.store.Upload(ctx, path, []byte(`{"items":[]}`), "application/json", port.IfGeneration(0))
	require.ErrorIs(t, err, domain.ErrVersionConflict)

	next, err := suite.store.Upload(ctx, path, []byte(`{"items":[{"id":2}]}`), "application/json", port.IfGeneration(gen))
	require.NoError(t, err)
	assert.NotEqual(t, gen, next)

	// the writer that read the first generation loses
	_, err = suite.store.Upload(ctx, path, []byte(`{"items":[{"id":3}]}`), "application/json", port.IfGeneration(gen))
	require.ErrorIs(t, err, domain.ErrVersionConflict)
}

func (suite *gcsSuite) TestPublicURL() {
	got := suite.store.PublicURL("wallets/0xabc/cart.json")
	suite.Equal("https://storage.googleapis.com/"+testBucket+"/wallets/0xabc/cart.json", got)
}

func startFakeGCS(ctx context.Context) (testcontainers.Container, string, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "fsouza/fake-gcs-server:1.52.2",
			ExposedPorts: []string{"4443/tcp"},
			Cmd:          []string{"-scheme", "http", "-port", "4443", "-backend", "memory"},
			WaitingFor:   wait.ForHTTP("/storage/v1/b").WithPort("4443/tcp"),
		},
		Started: true,
	})
	if err != nil {
		return nil, "", fmt.Errorf("testcontainers.GenericContainer: %w", err)
	}

	endpoint, err := container.PortEndpoint(ctx, "4443/tcp", "")
	if err != nil {
		return nil, "", fmt.Errorf("container.PortEndpoint: %w", err)
	}

	return container, endpoint, nil
}

func randomPath() string {
	return "wallets/" + gofakeit.UUID() + "/cart.json"
}
