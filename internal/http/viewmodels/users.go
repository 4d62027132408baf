package viewmodels

// UserRow is one table row.
type UserRow struct {
	Number     int
	Login      string
	AvatarURL  string
	ProfileURL string
	DetailHref string
}

type PageSizeOption struct {
	Size     int
	Selected bool
}

type Pager struct {
	PageIndex   int
	PageSize    int
	TotalPages  int
	TotalCount  int
	ShowingFrom int
	ShowingTo   int
	HasPrev     bool
	HasNext     bool
	PrevHref    string
	NextHref    string
	SizeOptions []PageSizeOption
}

type UsersViewData struct {
	Layout         LayoutData
	UserName       string
	Location       string
	Status         string
	Rows           []UserRow
	HasUsers       bool
	Pager          Pager
	ErrorMsg       string
	EmptyStateMsg  string
	CanonicalQuery string
	Detail         UserDetailViewData
}

type RepoItem struct {
	Name        string
	Description string
	HTMLURL     string
}

type UserDetailViewData struct {
	Open           bool
	Loading        bool
	ErrorMsg       string
	Login          string
	Name           string
	AvatarURL      string
	ProfileURL     string
	FollowersCount uint
	StarsCount     uint
	Bio            string
	Repos          []RepoItem
}
