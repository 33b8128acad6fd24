package boot

import (
	"go-canteenadmin/internal/consumer/oplog"
	"go-canteenadmin/internal/repository/dao"
	httpSrv "go-canteenadmin/internal/server/http"
	"go-canteenadmin/internal/server/http/handler"
	"go-canteenadmin/internal/service"

	"github.com/google/wire"
)

// InfraSet 两个进程共用
var InfraSet = wire.NewSet(
	ProvideConfig,
	NewLogger,
	NewTracing,
	NewDatabase,
	NewGateway,
)

var ProviderSet = wire.NewSet(
	InfraSet,
	NewRedis,
	NewLocalCache,
	ProvideCache,
	NewOpLogProducer,
	NewEventProducer,
	ProvidePublisher,
	NewOpLogSender,
	ProvideOpLogQueue,
	NewEtcd,
	NewJWTManager,
	// DAO
	dao.NewDishDAO,
	dao.NewCategoryDAO,
	dao.NewMenuDAO,
	dao.NewMenuTemplateDAO,
	dao.NewUserDAO,
	dao.NewDepartmentDAO,
	dao.NewOperationLogDAO,
	// Service
	service.NewDishService,
	service.NewMenuService,
	service.NewAdminService,
	// HTTP
	ProvideAdminDeps,
	ProvideDebugDeps,
	handler.NewHandlerSet,
	ProvideHealthChecker,
	httpSrv.NewRouter,
	NewApp,
)

var ConsumerSet = wire.NewSet(
	InfraSet,
	dao.NewOperationLogDAO,
	oplog.NewHandler,
	NewOpLogConsumer,
	NewConsumerApp,
)
