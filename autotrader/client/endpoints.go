package client

// API 端点常量
const (
	// Account
	EndpointFetchLivePseudoAccounts = "/account/fetchLivePseudoAccounts"

	// Command
	EndpointExecute = "/command/execute"

	// Order endpoints
	EndpointPlaceOrder                    = "/trading/placeOrder"
	EndpointPlaceTvOrder                  = "/trading/placeTvOrder"
	EndpointPlaceRegularOrder             = "/trading/placeRegularOrder"
	EndpointPlaceCoverOrder               = "/trading/placeCoverOrder"
	EndpointPlaceBracketOrder             = "/trading/placeBracketOrder"
	EndpointPlaceAdvancedOrder            = "/trading/placeAdvancedOrder"
	EndpointModifyOrderByPlatformID       = "/trading/modifyOrderByPlatformId"
	EndpointCancelOrderByPlatformID       = "/trading/cancelOrderByPlatformId"
	EndpointCancelChildOrdersByPlatformID = "/trading/cancelChildOrdersByPlatformId"
	EndpointCancelAllOrders               = "/trading/cancelAllOrders"

	// Portfolio
	EndpointSquareOffPosition   = "/trading/squareOffPosition"
	EndpointSquareOffTvPosition = "/trading/squareOffTvPosition"
	EndpointSquareOffPortfolio  = "/trading/squareOffPortfolio"
	EndpointAdjustHoldings      = "/trading/adjustHoldings"

	// Read
	EndpointReadPlatformOrders    = "/trading/readPlatformOrders"
	EndpointReadPlatformPositions = "/trading/readPlatformPositions"
	EndpointReadPlatformMargins   = "/trading/readPlatformMargins"
	EndpointReadPlatformHoldings  = "/trading/readPlatformHoldings"

	// AutoTrader desktop
	EndpointDesktopVersion    = "/trading/autoTraderDesktopVersion"
	EndpointDesktopMinVersion = "/trading/autoTraderDesktopMinVersion"
)
