package framecache

// lruNode is one entry of the recency list. It carries the key so an
// evicted node can be removed from the index map.
type lruNode struct {
	key  string
	size int64
	prev *lruNode
	next *lruNode
}

// lruList orders entries from most (head) to least (tail) recently used.
// It is not safe for concurrent use.
type lruList struct {
	head *lruNode
	tail *lruNode
	len  int
}

// Len returns the number of nodes in the list.
func (l *lruList) Len() int {
	return l.len
}

// PushFront inserts a node for key at the front.
func (l *lruList) PushFront(key string, size int64) *lruNode {
	node := &lruNode{key: key, size: size}
	l.linkFront(node)
	return node
}

// MoveToFront marks node as most recently used.
func (l *lruList) MoveToFront(node *lruNode) {
	if node == nil || node == l.head {
		return
	}
	l.unlink(node)
	l.linkFront(node)
}

// Remove takes node out of the list.
func (l *lruList) Remove(node *lruNode) {
	if node != nil {
		l.unlink(node)
	}
}

// RemoveOldest removes and returns the least recently used node, or nil
// when the list is empty.
func (l *lruList) RemoveOldest() *lruNode {
	node := l.tail
	if node != nil {
		l.unlink(node)
	}
	return node
}

// Clear empties the list.
func (l *lruList) Clear() {
	*l = lruList{}
}

func (l *lruList) linkFront(node *lruNode) {
	node.prev = nil
	node.next = l.head
	if l.head != nil {
		l.head.prev = node
	}
	l.head = node
	if l.tail == nil {
		l.tail = node
	}
	l.len++
}

func (l *lruList) unlink(node *lruNode) {
	if node.prev != nil {
		node.prev.next = node.next
	} else {
		l.head = node.next
	}
	if node.next != nil {
		node.next.prev = node.prev
	} else {
		l.tail = node.prev
	}
	node.prev, node.next = nil, nil
	l.len--
}
