package feed

const listingAtom = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:media="http://search.yahoo.com/mrss/">
  <category term="news" label="r/news"/>
  <updated>2024-03-01T12:00:00+00:00</updated>
  <id>/r/news/hot/.rss</id>
  <title>news</title>
  <entry>
    <author><name>/u/reporter</name><uri>https://www.reddit.com/user/reporter</uri></author>
    <category term="news" label="r/news"/>
    <content type="html">&lt;table&gt; &lt;tr&gt;&lt;td&gt; &amp;#32; submitted by &amp;#32; &lt;a href=&quot;https://www.reddit.com/user/reporter&quot;&gt; /u/reporter &lt;/a&gt; &lt;br/&gt; &lt;span&gt;&lt;a href=&quot;https://example.com/world/aid-crisis?utm_source=reddit&amp;amp;id=7&quot;&gt;[link]&lt;/a&gt;&lt;/span&gt; &amp;#32; &lt;span&gt;&lt;a href=&quot;https://www.reddit.com/r/news/comments/8x2k1q/aid_crisis/&quot;&gt;[comments]&lt;/a&gt;&lt;/span&gt; &lt;/td&gt;&lt;/tr&gt;&lt;/table&gt;</content>
    <id>t3_8x2k1q</id>
    <link href="https://www.reddit.com/r/news/comments/8x2k1q/aid_crisis/"/>
    <updated>2024-03-01T11:00:00+00:00</updated>
    <published>2024-03-01T10:00:00+00:00</published>
    <title>Aid groups warn of worsening crisis</title>
  </entry>
  <entry>
    <author><name>/u/asker</name></author>
    <content type="html">&lt;!-- SC_OFF --&gt;&lt;div class=&quot;md&quot;&gt;&lt;p&gt;What is everyone reading this week?&lt;/p&gt;&lt;/div&gt;&lt;!-- SC_ON --&gt; &amp;#32; submitted by &amp;#32; &lt;a href=&quot;https://www.reddit.com/user/asker&quot;&gt; /u/asker &lt;/a&gt; &lt;br/&gt; &lt;span&gt;&lt;a href=&quot;https://www.reddit.com/r/news/comments/9a1b2c/weekly/&quot;&gt;[link]&lt;/a&gt;&lt;/span&gt; &amp;#32; &lt;span&gt;&lt;a href=&quot;https://www.reddit.com/r/news/comments/9a1b2c/weekly/&quot;&gt;[comments]&lt;/a&gt;&lt;/span&gt;</content>
    <id>t3_9a1b2c</id>
    <link href="https://www.reddit.com/r/news/comments/9a1b2c/weekly/"/>
    <updated>2024-03-01T09:00:00+00:00</updated>
    <title>Weekly reading thread</title>
  </entry>
</feed>`

const commentsAtom = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <id>/comments/8x2k1q/.rss</id>
  <title>Aid groups warn of worsening crisis</title>
  <updated>2024-03-01T12:00:00+00:00</updated>
  <entry>
    <author><name>/u/reporter</name></author>
    <content type="html">submitted by /u/reporter</content>
    <id>t3_8x2k1q</id>
    <link href="https://www.reddit.com/r/news/comments/8x2k1q/aid_crisis/"/>
    <updated>2024-03-01T11:00:00+00:00</updated>
    <title>Aid groups warn of worsening crisis</title>
  </entry>
  <entry>
    <author><name>/u/first</name></author>
    <content type="html">&lt;div class=&quot;md&quot;&gt;&lt;p&gt;This is terrible news for everyone in the region.&lt;/p&gt;&lt;/div&gt;</content>
    <id>t1_c0001</id>
    <link href="https://www.reddit.com/r/news/comments/8x2k1q/aid_crisis/c0001/"/>
    <updated>2024-03-01T11:30:00+00:00</updated>
    <title>/u/first on Aid groups warn of worsening crisis</title>
  </entry>
  <entry>
    <author><name>/u/second</name></author>
    <content type="html">&lt;div class=&quot;md&quot;&gt;&lt;p&gt;Agreed.&lt;/p&gt;&lt;/div&gt;</content>
    <id>t1_c0002</id>
    <link href="https://www.reddit.com/r/news/comments/8x2k1q/aid_crisis/c0002/"/>
    <updated>2024-03-01T11:40:00+00:00</updated>
    <title>/u/second on Aid groups warn of worsening crisis</title>
  </entry>
</feed>`

const articleHTML = `<!DOCTYPE html>
<html>
<head><title>Aid crisis deepens</title></head>
<body>
  <nav>Home | World | Sport</nav>
  <article>
    <h1>Aid crisis deepens</h1>
    <p>Aid agencies say the humanitarian crisis is deepening as supplies run short across the region.</p>
    <p>The crisis has left thousands without food, and aid convoys are waiting at the border for permission to enter.</p>
    <p>Officials said aid deliveries would resume once the crossing reopens, but warned the crisis could last for months.</p>
  </article>
  <footer>Copyright 2024</footer>
</body>
</html>`
