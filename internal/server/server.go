package server

// Server bundles the entity-specific HTTP servers behind one route table.
type Server struct {
	AuthServer
	ProductServer
	BargainServer
}

func NewServer(
	authServer AuthServer,
	productServer ProductServer,
	bargainServer BargainServer,
) Server {
	return Server{
		AuthServer:    authServer,
		ProductServer: productServer,
		BargainServer: bargainServer,
	}
}
