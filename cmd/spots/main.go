package main

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"math/big"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/padimaster/spots/adapters/bridge"
	"github.com/padimaster/spots/adapters/catalog"
	"github.com/padimaster/spots/adapters/directory"
	"github.com/padimaster/spots/adapters/events"
	"github.com/padimaster/spots/adapters/store"
	"github.com/padimaster/spots/adapters/tokenizer"
	"github.com/padimaster/spots/adapters/verifier"
	"github.com/padimaster/spots/adapters/wallethost"
	"github.com/padimaster/spots/config"
	"github.com/padimaster/spots/internal/eth"
	"github.com/padimaster/spots/logger"
	"github.com/padimaster/spots/service"
	transport "github.com/padimaster/spots/transport/http"
)

func main() {
	cfg := config.Load()

	zlog, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zlog.Sync()

	// Session signing key: loaded from env or generated for this process
	signKey, err := loadSessionKey(cfg.SessionKeyHex)
	if err != nil {
		zlog.Fatal("Failed to load session signing key", zap.Error(err))
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		zlog.Fatal("Failed to parse Redis URL", zap.Error(err))
	}
	redisClient := redis.NewClient(opts)

	wmLogger := watermill.NewStdLogger(false, false)
	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{
			Client: redisClient,
		},
		wmLogger,
	)
	if err != nil {
		zlog.Fatal("Failed to create Redis publisher", zap.Error(err))
	}

	rpcClient, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		zlog.Fatal("Failed to connect to RPC", zap.Error(err))
	}

	balances, err := eth.NewERC20Reader(rpcClient)
	if err != nil {
		zlog.Fatal("Failed to create ERC-20 reader", zap.Error(err))
	}

	host, err := wallethost.NewLocalHost(nil, cfg.HostDomain, "https://"+cfg.HostDomain, cfg.HostChainID)
	if err != nil {
		zlog.Fatal("Failed to create wallet host", zap.Error(err))
	}

	verify := verifier.NewHMACVerifier(cfg.NonceSecret)
	tokens := store.NewRedisTokenStore(redisClient)
	intents := store.NewRedisIntentStore(redisClient)
	sessionBridge := bridge.NewHTTPBridge(cfg.BridgeBaseURL)
	users := directory.NewHTTPDirectory(cfg.DirectoryBaseURL)
	eventPub := events.NewWatermillPublisher(publisher)
	jwtTokenizer := tokenizer.NewJWTTokenizer(signKey)

	authService := service.NewAuthService(host, verify, jwtTokenizer, sessionBridge, tokens, users, eventPub, zlog)

	payToken := cfg.Tokens[cfg.PayToken]
	paymentService := service.NewPaymentService(host, authService, intents, users, eventPub, zlog, service.PaymentConfig{
		TokenSymbol:      payToken.Symbol,
		TokenDecimals:    payToken.Decimals,
		PoolAddress:      cfg.PoolAddress,
		OffRampWallet:    cfg.OffRampWallet,
		FallbackUsername: cfg.FallbackUsername,
		Description:      "Sports bet",
	})

	maxStake, err := decimal.NewFromString(cfg.MaxStake)
	if err != nil {
		zlog.Fatal("Failed to parse max stake", zap.Error(err))
	}

	catalogClient := catalog.New(cfg.CatalogBaseURL)
	handlers := transport.NewHandlers(authService, paymentService, catalogClient, balances, cfg.Tokens, maxStake, zlog)

	router := transport.SetupRouter(authService, handlers)

	zlog.Info("Starting server", zap.String("port", cfg.HTTPPort))
	if err := router.Run(":" + cfg.HTTPPort); err != nil {
		zlog.Fatal("Failed to start server", zap.Error(err))
	}
}

// loadSessionKey parses a hex-encoded P-256 scalar, or generates a fresh
// key when none is configured (sessions then die with the process).
func loadSessionKey(hexKey string) (*ecdsa.PrivateKey, error) {
	if hexKey == "" {
		return ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	}

	raw, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode session key: %w", err)
	}

	curve := elliptic.P256()
	d := new(big.Int).SetBytes(raw)
	if d.Sign() <= 0 || d.Cmp(curve.Params().N) >= 0 {
		return nil, fmt.Errorf("session key out of range")
	}

	priv := &ecdsa.PrivateKey{D: d}
	priv.PublicKey.Curve = curve
	priv.PublicKey.X, priv.PublicKey.Y = curve.ScalarBaseMult(raw)
	return priv, nil
}
